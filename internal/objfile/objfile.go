// Package objfile supplies concrete stand-ins for the two external
// collaborators spec.md §1 declares out of scope for object-file-driven
// extraction: "sections(obj) -> [(addr, bytes)]" and
// "decode(bytes) -> [instruction]". cmd/extract wires Sections and
// Decode into internal/extract.Extract as its SectionsFunc/DecodeFunc.
package objfile

import (
	"debug/elf"
	"fmt"

	"github.com/sarchlab/llvm-ml-bench/internal/extract"
)

// Sections reads objPath's executable (SHF_EXECINSTR) sections via the
// standard library's ELF reader — no third-party ELF parser appears
// anywhere in the reference pack, so debug/elf stands in for the LLVM
// object-file front end the original tool links against directly.
func Sections(objPath string) ([]extract.Section, error) {
	f, err := elf.Open(objPath)
	if err != nil {
		return nil, fmt.Errorf("objfile: open %s: %w", objPath, err)
	}
	defer f.Close()

	var secs []extract.Section
	for _, sec := range f.Sections {
		if sec.Flags&elf.SHF_EXECINSTR == 0 {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			return nil, fmt.Errorf("objfile: read section %s: %w", sec.Name, err)
		}
		if len(data) == 0 {
			continue
		}
		secs = append(secs, extract.Section{Name: sec.Name, Addr: sec.Addr, Data: data})
	}
	return secs, nil
}
