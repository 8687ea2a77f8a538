package markupdiff

// LookaheadWindow is how many runs of the current text are scanned to realign
// the cursors after a mismatch.
const LookaheadWindow = 5

// DiffText computes a word-level diff between two plain-text strings.
func DiffText(original, current string, opts Options) []DiffToken {
	return diffRuns(splitRuns(original), splitRuns(current), newComparer(opts))
}

// diffRuns walks both run lists in lockstep. On a mismatch it looks ahead in the
// current runs for the original run; a hit means the skipped runs were inserted,
// a miss is reported as a substitution of one run.
func diffRuns(orig, cur []string, cmp *comparer) []DiffToken {
	result := make([]DiffToken, 0, len(orig)+len(cur))
	i, j := 0, 0

	for i < len(orig) || j < len(cur) {
		if i >= len(orig) {
			result = append(result, DiffToken{Status: StatusAdded, Text: cur[j]})
			j++
			continue
		}
		if j >= len(cur) {
			result = append(result, DiffToken{Status: StatusRemoved, Text: orig[i]})
			i++
			continue
		}
		if cmp.equal(orig[i], cur[j]) {
			result = append(result, DiffToken{Status: StatusUnchanged, Text: orig[i]})
			i++
			j++
			continue
		}

		skip := 0
		for k := 1; k <= LookaheadWindow && j+k < len(cur); k++ {
			if cmp.equal(orig[i], cur[j+k]) {
				skip = k
				break
			}
		}

		if skip > 0 {
			for _, run := range cur[j : j+skip] {
				result = append(result, DiffToken{Status: StatusAdded, Text: run})
			}
			j += skip
			continue
		}

		result = append(result,
			DiffToken{Status: StatusRemoved, Text: orig[i]},
			DiffToken{Status: StatusAdded, Text: cur[j]},
		)
		i++
		j++
	}

	return result
}
