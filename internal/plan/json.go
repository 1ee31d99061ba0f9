package plan

import (
	"encoding/json"
	"fmt"
)

// taskJSON mirrors Task for serialization, with the payload as raw JSON so
// the kind field can drive decoding. Payloads are treated as immutable once
// attached, so round-tripping never needs to merge.
type taskJSON struct {
	taskAlias
	Payload json.RawMessage `json:"payload,omitempty"`
}

// taskAlias strips Task's methods to avoid marshal recursion.
type taskAlias Task

// MarshalJSON serializes the task with its kind-specific payload inline.
func (t Task) MarshalJSON() ([]byte, error) {
	out := taskJSON{taskAlias: taskAlias(t)}
	if t.Payload != nil {
		raw, err := json.Marshal(t.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t.Kind, err)
		}
		out.Payload = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the payload into the concrete type selected by the
// task's kind. Unknown kinds keep a nil payload rather than failing; the
// planner degrades unknown categories the same way.
func (t *Task) UnmarshalJSON(data []byte) error {
	var in taskJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Task(in.taskAlias)
	if len(in.Payload) == 0 {
		return nil
	}
	p := emptyPayload(t.Kind)
	if p == nil {
		return nil
	}
	if err := json.Unmarshal(in.Payload, p); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", t.Kind, err)
	}
	t.Payload = p
	return nil
}
