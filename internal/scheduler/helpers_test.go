package scheduler

import (
	"io"
	"log/slog"

	"github.com/roach88/workplan/internal/ir"
)

func quietLogger() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func shared(id string) ir.TypeInfo {
	return ir.TypeInfo{Name: id, Mode: ir.Shared, StorageID: ir.StorageID(id), ThreadMobile: true}
}

func exclusive(id string) ir.TypeInfo {
	return ir.TypeInfo{Name: id, Mode: ir.Exclusive, StorageID: ir.StorageID(id), ThreadMobile: true}
}

func immobile(t ir.TypeInfo) ir.TypeInfo {
	t.ThreadMobile = false
	return t
}

func sys(name string, borrow ...ir.TypeInfo) ir.SystemInfo {
	return ir.SystemInfo{Name: name, TypeID: ir.TypeID("w." + name), Borrow: borrow}
}

func batchNames(batches []ir.BatchInfo) [][]string {
	out := make([][]string, len(batches))
	for i, b := range batches {
		out[i] = []string{}
		for _, s := range b.Systems() {
			out[i] = append(out[i], s.Name)
		}
	}
	return out
}
