package vercmp

import "strings"

// Pacman orders versions the way libalpm does: [epoch:]pkgver[-pkgrel], where
// pkgrel only participates when both sides carry one.
type Pacman struct{}

// Compare implements Comparer.
func (Pacman) Compare(a, b string) int {
	if a == b {
		return 0
	}
	epochA, verA, relA := parseEVR(a)
	epochB, verB, relB := parseEVR(b)

	if ret := segmentCompare(epochA, epochB); ret != 0 {
		return ret
	}
	if ret := segmentCompare(verA, verB); ret != 0 {
		return ret
	}
	if relA != nil && relB != nil {
		return segmentCompare(*relA, *relB)
	}
	return 0
}

// parseEVR splits a version into epoch, pkgver and an optional pkgrel.
func parseEVR(evr string) (string, string, *string) {
	digits := 0
	for digits < len(evr) && isDigit(evr[digits]) {
		digits++
	}

	epoch := "0"
	version := evr
	if digits < len(evr) && evr[digits] == ':' {
		if digits > 0 {
			epoch = evr[:digits]
		}
		version = evr[digits+1:]
	}

	idx := strings.LastIndexByte(version, '-')
	if idx < 0 {
		return epoch, version, nil
	}
	release := version[idx+1:]
	return epoch, version[:idx], &release
}

// segmentCompare walks alternating numeric and alphabetic runs.
// Numeric runs compare by value, alphabetic runs lexically, and a numeric run
// is always newer than an alphabetic one. Leftover alphabetic text never beats
// an exhausted string ("1.0a" < "1.0").
func segmentCompare(a, b string) int {
	if a == b {
		return 0
	}

	i, j := 0, 0
	prevI, prevJ := 0, 0
	for i < len(a) && j < len(b) {
		for i < len(a) && !isAlnum(a[i]) {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) {
			j++
		}
		if i >= len(a) || j >= len(b) {
			break
		}

		// Differing separator lengths decide on their own.
		if sepA, sepB := i-prevI, j-prevJ; sepA != sepB {
			if sepA < sepB {
				return -1
			}
			return 1
		}

		startI, startJ := i, j
		numeric := isDigit(a[i])
		if numeric {
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
		} else {
			for i < len(a) && isAlpha(a[i]) {
				i++
			}
			for j < len(b) && isAlpha(b[j]) {
				j++
			}
		}

		segA := a[startI:i]
		segB := b[startJ:j]
		if segB == "" {
			// Segment types differ; numbers win over letters.
			if numeric {
				return 1
			}
			return -1
		}

		if numeric {
			segA = strings.TrimLeft(segA, "0")
			segB = strings.TrimLeft(segB, "0")
			if len(segA) != len(segB) {
				if len(segA) > len(segB) {
					return 1
				}
				return -1
			}
		}
		if cmp := strings.Compare(segA, segB); cmp != 0 {
			return cmp
		}
		prevI, prevJ = i, j
	}

	restA := i >= len(a)
	restB := j >= len(b)
	if restA && restB {
		return 0
	}
	if (restA && !isAlpha(b[j])) || (!restA && isAlpha(a[i])) {
		return -1
	}
	return 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }
