package domain

import (
	"bytes"
	"encoding/json"
	"sort"
)

// NotAnswered is how an empty selection is displayed.
const NotAnswered = "Not Answered"

// Choice holds one or more option values. Multi marks set semantics, so a
// multi-answer key with a single member is still distinguishable from a
// single answer. On the wire a single choice is a JSON string and a multi
// choice is a JSON array.
type Choice struct {
	Values []string
	Multi  bool
}

// Single builds a single-answer choice.
func Single(value string) Choice {
	return Choice{Values: []string{value}}
}

// Multiple builds a set choice.
func Multiple(values ...string) Choice {
	return Choice{Values: append([]string(nil), values...), Multi: true}
}

// Empty reports whether nothing is selected.
func (c Choice) Empty() bool {
	return len(c.Values) == 0
}

// Contains reports whether value is part of the choice.
func (c Choice) Contains(value string) bool {
	for _, v := range c.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Toggle adds value to a set choice, or removes it when already present.
func (c Choice) Toggle(value string) Choice {
	out := Choice{Multi: true, Values: make([]string, 0, len(c.Values)+1)}
	removed := false
	for _, v := range c.Values {
		if v == value {
			removed = true
			continue
		}
		out.Values = append(out.Values, v)
	}
	if !removed {
		out.Values = append(out.Values, value)
	}
	return out
}

// Sorted returns a sorted copy of the values.
func (c Choice) Sorted() []string {
	out := append([]string(nil), c.Values...)
	sort.Strings(out)
	return out
}

func (c Choice) String() string {
	if c.Empty() {
		return NotAnswered
	}
	if !c.Multi {
		return c.Values[0]
	}
	var b bytes.Buffer
	for i, v := range c.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v)
	}
	return b.String()
}

func (c Choice) MarshalJSON() ([]byte, error) {
	if c.Empty() && !c.Multi {
		return []byte("null"), nil
	}
	if c.Multi {
		values := c.Values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	return json.Marshal(c.Values[0])
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Choice{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*c = Choice{Values: values, Multi: true}
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*c = Single(value)
	return nil
}
