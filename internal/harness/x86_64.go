package harness

// X86_64Builder is the InlineAsmBuilder for the x86_64 target (spec.md
// §3: only x86_64 is implemented). It saves and restores the flags
// register and rax, rbx, rcx and rdx, and clears the direction flag so
// string-family opcodes behave deterministically across runs. No other
// general-purpose register, vector/xsave state or MXCSR is saved.
type X86_64Builder struct{}

func (X86_64Builder) SaveState() []Stmt {
	return []Stmt{
		asmLine("pushfq"),
		asmLine("push %rax"),
		asmLine("push %rbx"),
		asmLine("push %rcx"),
		asmLine("push %rdx"),
	}
}

func (X86_64Builder) RestoreState() []Stmt {
	return []Stmt{
		asmLine("pop %rdx"),
		asmLine("pop %rcx"),
		asmLine("pop %rbx"),
		asmLine("pop %rax"),
		asmLine("popfq"),
	}
}

func (X86_64Builder) SetupEnv() []Stmt {
	return []Stmt{
		asmLine("cld"),
	}
}

func (X86_64Builder) RestoreEnv() []Stmt {
	return nil
}
