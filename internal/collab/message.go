package collab

import "encoding/json"

// Frame types exchanged over /ws. Frames are UTF-8 JSON objects with a
// mandatory "type" field; anything unrecognized is ignored.
const (
	TypeJoinProject  = "join_project"
	TypeLeaveProject = "leave_project"
	TypeCodeChange   = "code_change"
	TypeJoined       = "joined"
)

// Envelope is the wire shape of every frame. Data stays raw: the hub
// relays code changes without interpreting the editor payload.
type Envelope struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func joinedFrame(projectID string) []byte {
	data, _ := json.Marshal(Envelope{Type: TypeJoined, ProjectID: projectID})
	return data
}

func codeChangeFrame(data json.RawMessage) []byte {
	out, _ := json.Marshal(Envelope{Type: TypeCodeChange, Data: data})
	return out
}
