package domain

// IsCorrect grades a selection against the question's answer key. Empty
// selections are never correct and multi-answer questions get no partial credit.
func IsCorrect(q Question, selected Choice) bool {
	if selected.Empty() || q.CorrectAnswer.Empty() {
		return false
	}
	if !q.IsMulti() {
		return len(selected.Values) == 1 && selected.Values[0] == q.CorrectAnswer.Values[0]
	}

	got := selected.Sorted()
	want := q.CorrectAnswer.Sorted()
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
