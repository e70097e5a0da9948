package codec

import (
	"io"

	"github.com/sarchlab/llvm-ml-bench/internal/model"
)

// EncodeDataPiece writes a joined {id, cov, graph, metrics} record (the
// "DataPiece" of spec.md §4.7).
func EncodeDataPiece(w io.Writer, d *model.DatasetEntry) error {
	wr := newWriter(w)
	if err := wr.str(d.ID); err != nil {
		return wrapErr("datapiece.id", err)
	}
	if err := wr.f64(d.CoV); err != nil {
		return wrapErr("datapiece.cov", err)
	}
	if err := EncodeGraph(w, &d.Graph); err != nil {
		return err
	}
	if err := EncodeMetrics(w, &d.Metrics); err != nil {
		return err
	}
	return nil
}

func decodeDataPiece(rd *reader) (*model.DatasetEntry, error) {
	if err := rd.enter(); err != nil {
		return nil, err
	}
	defer rd.leave()

	id, err := rd.str()
	if err != nil {
		return nil, err
	}
	cov, err := rd.f64()
	if err != nil {
		return nil, err
	}
	graph, err := decodeGraph(rd)
	if err != nil {
		return nil, err
	}
	metrics, err := decodeMetrics(rd)
	if err != nil {
		return nil, err
	}
	return &model.DatasetEntry{ID: id, CoV: cov, Graph: *graph, Metrics: *metrics}, nil
}

// DecodeDataPiece reads back a DatasetEntry written by EncodeDataPiece.
func DecodeDataPiece(r io.Reader) (*model.DatasetEntry, error) {
	rd := newReader(r)
	d, err := decodeDataPiece(rd)
	if err != nil {
		return nil, wrapErr("datapiece", err)
	}
	return d, nil
}

// EncodeDataset writes a length-tagged sequence of DatasetEntry records
// (the "Dataset" container of spec.md §4.7).
func EncodeDataset(w io.Writer, entries []model.DatasetEntry) error {
	wr := newWriter(w)
	if err := wr.u32(uint32(len(entries))); err != nil {
		return wrapErr("dataset.count", err)
	}
	for i := range entries {
		if err := EncodeDataPiece(w, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDataset reads back a Dataset container written by EncodeDataset.
func DecodeDataset(r io.Reader) ([]model.DatasetEntry, error) {
	rd := newReader(r)
	count, err := rd.u32()
	if err != nil {
		return nil, wrapErr("dataset.count", err)
	}
	if err := rd.charge(int64(count)); err != nil {
		return nil, wrapErr("dataset.count", err)
	}
	out := make([]model.DatasetEntry, count)
	for i := range out {
		d, err := decodeDataPiece(rd)
		if err != nil {
			return nil, wrapErr("dataset", err)
		}
		out[i] = *d
	}
	return out, nil
}
