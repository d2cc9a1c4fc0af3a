package upload

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ThreatType classifies why the scanner rejected a file.
type ThreatType string

const (
	ThreatForbiddenExtension ThreatType = "forbidden_extension"
	ThreatSignatureMismatch  ThreatType = "signature_mismatch"
	ThreatSuspiciousContent  ThreatType = "suspicious_content"
	ThreatKnownMalware       ThreatType = "known_malware"
	ThreatScanFailure        ThreatType = "scan_failure"
)

// ScanError is the scanner's verdict for a rejected file. Scanner failures
// are reported as ThreatScanFailure: a file the scanner could not inspect is
// treated as unsafe.
type ScanError struct {
	Threat  ThreatType
	Message string
}

func (e *ScanError) Error() string {
	return e.Message
}

// HashLookup answers whether a content hash belongs to known malware.
// Injected so the blacklist's lifecycle is owned by whoever configures the
// scanner, not by package state.
type HashLookup interface {
	Lookup(hash string) bool
}

// HashSet is an in-memory HashLookup over lowercased hex MD5 digests.
type HashSet map[string]struct{}

func (s HashSet) Lookup(hash string) bool {
	_, ok := s[strings.ToLower(hash)]
	return ok
}

// maxHeuristicBytes bounds how much of the file the text heuristics read.
const maxHeuristicBytes = 10 * 1024

// suspiciousPatterns are matched case-insensitively against the file prefix.
var suspiciousPatterns = []string{
	"<script",
	"eval(",
	"document.write(",
	"<?php",
	`\x90\x90\x90\x90`,
}

// casedPatterns are matched exactly; "TVqQ" is the base64 form of the MZ
// executable header and must keep its case.
var casedPatterns = []string{
	"TVqQAAMAAAAEAAAA",
	"TVqQAAIAAAAEAA",
}

// Scanner inspects file bytes already written to disk. hashes may be nil,
// which disables the blacklist check.
type Scanner struct {
	hashes HashLookup
}

func NewScanner(hashes HashLookup) *Scanner {
	return &Scanner{hashes: hashes}
}

// Scan runs the content checks, cheapest first: extension re-check, magic
// byte verification, text heuristics, hash blacklist. Any I/O or decode
// problem fails closed.
func (s *Scanner) Scan(path string) error {
	ext := Extension(path)
	if deniedExtensions[ext] {
		return &ScanError{
			Threat:  ThreatForbiddenExtension,
			Message: fmt.Sprintf("extension .%s is not allowed for security reasons", ext),
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return &ScanError{Threat: ThreatScanFailure, Message: "unable to open file for scanning: " + err.Error()}
	}
	defer f.Close()

	header := make([]byte, 8)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return &ScanError{Threat: ThreatScanFailure, Message: "unable to read file header: " + err.Error()}
	}
	header = header[:n]

	if err := checkSignature(ext, header); err != nil {
		return err
	}

	if err := s.checkHeuristics(f, header); err != nil {
		return err
	}

	if s.hashes != nil {
		if err := s.checkHashBlacklist(f); err != nil {
			return err
		}
	}

	return nil
}

func checkSignature(ext string, header []byte) error {
	signatures, ok := magicSignatures[ext]
	if !ok {
		return nil
	}
	for _, sig := range signatures {
		if len(header) >= len(sig) && bytes.Equal(header[:len(sig)], sig) {
			return nil
		}
	}
	return &ScanError{
		Threat:  ThreatSignatureMismatch,
		Message: fmt.Sprintf("file signature mismatch: content does not match .%s format", ext),
	}
}

// checkHeuristics decodes a bounded prefix as text and looks for embedded
// script or shellcode markers. header was already consumed from f.
func (s *Scanner) checkHeuristics(f *os.File, header []byte) error {
	rest := make([]byte, maxHeuristicBytes-len(header))
	n, err := io.ReadFull(f, rest)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return &ScanError{Threat: ThreatScanFailure, Message: "unable to read file content: " + err.Error()}
	}
	prefix := append(append([]byte{}, header...), rest[:n]...)

	text := string(prefix)
	lower := strings.ToLower(text)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lower, pattern) {
			return &ScanError{
				Threat:  ThreatSuspiciousContent,
				Message: "suspicious content detected: " + pattern,
			}
		}
	}
	for _, pattern := range casedPatterns {
		if strings.Contains(text, pattern) {
			return &ScanError{
				Threat:  ThreatSuspiciousContent,
				Message: "suspicious content detected: embedded executable",
			}
		}
	}
	return nil
}

func (s *Scanner) checkHashBlacklist(f *os.File) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return &ScanError{Threat: ThreatScanFailure, Message: "unable to rewind file for hashing: " + err.Error()}
	}
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return &ScanError{Threat: ThreatScanFailure, Message: "unable to hash file: " + err.Error()}
	}
	digest := hex.EncodeToString(h.Sum(nil))
	if s.hashes.Lookup(digest) {
		return &ScanError{
			Threat:  ThreatKnownMalware,
			Message: "file matches a known malware signature",
		}
	}
	return nil
}
