package store

import (
	"errors"
	"fmt"

	"github.com/roach88/workplan/internal/ir"
)

// ErrIntegrity is returned when an archived body no longer matches its
// stored fingerprint.
var ErrIntegrity = errors.New("report body does not match its fingerprint")

// marshalReport returns the canonical body and fingerprint of a report.
func marshalReport(w ir.WorkloadInfo) (body string, hash string, err error) {
	data, err := ir.MarshalReport(w)
	if err != nil {
		return "", "", err
	}
	hash, err = ir.ReportHash(w)
	if err != nil {
		return "", "", err
	}
	return string(data), hash, nil
}

// unmarshalReport decodes an archived body and checks it against hash.
func unmarshalReport(body, hash string) (ir.WorkloadInfo, error) {
	w, err := ir.UnmarshalReport([]byte(body))
	if err != nil {
		return ir.WorkloadInfo{}, err
	}
	got, err := ir.ReportHash(w)
	if err != nil {
		return ir.WorkloadInfo{}, err
	}
	if got != hash {
		return ir.WorkloadInfo{}, fmt.Errorf("workload %s: %w", w.Name, ErrIntegrity)
	}
	return w, nil
}
