package devserver

// Wire protocol messages for the persistent dev-server channel (spec §6),
// grounded on tain335-esbuild's PackMessage but split into one typed
// struct per message kind rather than a single {Type, Data string} bag, so
// json.Marshal produces the field shapes spec §6 names directly instead of
// a second encode/decode step through a string payload.

type ConnectedMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

func newConnected(ts int64) ConnectedMessage {
	return ConnectedMessage{Type: "connected", Timestamp: ts}
}

type ModuleUpdate struct {
	Kind      string `json:"kind"` // "js" | "css"
	ChunkID   string `json:"chunk-id"`
	ModuleIDs []int  `json:"module-ids"`
	NewBytes  []byte `json:"new-bytes"`
}

type UpdateMessage struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Updates   []ModuleUpdate `json:"updates"`
}

func newUpdate(ts int64, updates []ModuleUpdate) UpdateMessage {
	return UpdateMessage{Type: "update", Timestamp: ts, Updates: updates}
}

type FullReloadMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

func newFullReload(ts int64) FullReloadMessage {
	return FullReloadMessage{Type: "full-reload", Timestamp: ts}
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func newError(message string) ErrorMessage {
	return ErrorMessage{Type: "error", Message: message}
}

// HMRAck is the one client->server message, per spec §6.
type HMRAck struct {
	Type            string `json:"type"`
	UpdateTimestamp int64  `json:"update-timestamp"`
}
