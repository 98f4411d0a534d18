package model

// Event types emitted by the backend's push stream.
const (
	EventConnected  = "connected"
	EventTextUpdate = "text_update"
	EventReset      = "reset"
	EventAudioPlay  = "audio_play"
	EventPing       = "ping"
)

// ActionPlayMirrorSound is the only audio_play action the display reacts to.
const ActionPlayMirrorSound = "play_mirror_sound"

// Event is one message from the backend event stream.
type Event struct {
	Type        string  `json:"type"`
	Text        string  `json:"text,omitempty"`
	NewText     string  `json:"new_text,omitempty"`
	CurrentText string  `json:"current_text,omitempty"`
	Message     string  `json:"message,omitempty"`
	Action      string  `json:"action,omitempty"`
	AudioFile   string  `json:"audio_file,omitempty"`
	Timestamp   float64 `json:"timestamp,omitempty"`
}

// TokenRequest asks the backend to mint a session credential.
type TokenRequest struct {
	Room     string `json:"room"`
	Name     string `json:"name"`
	Identity string `json:"identity"`
}

type TokenResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
	URL      string `json:"url,omitempty"`
	Room     string `json:"room,omitempty"`
	Identity string `json:"identity,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Credential authorizes one participant to join one session.
type Credential struct {
	Token string
	URL   string
}

// DisplayUpdate is pushed to local display clients over the feed socket.
type DisplayUpdate struct {
	Text            string `json:"text"`
	StreamConnected bool   `json:"stream_connected"`
	Transcript      string `json:"transcript,omitempty"`
}

type RoomList struct {
	Success bool     `json:"success"`
	Rooms   []string `json:"rooms"`
	Count   int      `json:"count"`
	Error   string   `json:"error,omitempty"`
}

type VideoRecording struct {
	ID                 int     `json:"id"`
	RoomID             string  `json:"room_id"`
	VideoURL           string  `json:"video_url"`
	PresignedURL       string  `json:"presigned_url"`
	EgressID           string  `json:"egress_id"`
	GuestName          string  `json:"guest_name"`
	GuestPhone         string  `json:"guest_phone"`
	GuestRelation      string  `json:"guest_relation"`
	RecordingStartedAt string  `json:"recording_started_at"`
	RecordingEndedAt   string  `json:"recording_ended_at"`
	FileSizeBytes      int64   `json:"file_size_bytes"`
	DurationSeconds    float64 `json:"duration_seconds"`
	Status             string  `json:"status"`
	CreatedAt          string  `json:"created_at"`
}

type Guest struct {
	ID           int    `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	SeatNumber   string `json:"seat_number"`
	Relation     string `json:"relation"`
	RelationType string `json:"relation_type"`
	Message      string `json:"message"`
	Story        string `json:"story"`
	About        string `json:"about"`
}

type RelationType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
