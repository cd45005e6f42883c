package ir

import (
	"fmt"

	"github.com/zeebo/blake3"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainReport   = "workplan/report/v1"
	DomainWorkload = "workplan/workload/v1"
)

// hashWithDomain computes a BLAKE3 hash with domain separation.
// Format: BLAKE3(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := blake3.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ReportHash fingerprints a report. Two reports hash equal exactly when their
// canonical encodings are byte-identical, which is how the archive detects
// that a workload's schedule changed between runs.
func ReportHash(w WorkloadInfo) (string, error) {
	canonical, err := MarshalReport(w)
	if err != nil {
		return "", fmt.Errorf("ReportHash: %w", err)
	}
	return hashWithDomain(DomainReport, canonical), nil
}

// SpecHash fingerprints a workload declaration so the archive can tell
// whether a schedule changed because its input changed.
func SpecHash(spec WorkloadSpec) (string, error) {
	canonical, err := MarshalCanonical(spec.Canonical())
	if err != nil {
		return "", fmt.Errorf("SpecHash: %w", err)
	}
	return hashWithDomain(DomainWorkload, canonical), nil
}

// MustReportHash is like ReportHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustReportHash(w WorkloadInfo) string {
	hash, err := ReportHash(w)
	if err != nil {
		panic(err)
	}
	return hash
}
