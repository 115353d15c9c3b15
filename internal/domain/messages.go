package domain

// Inbound message types.
const (
	MsgTypeJoin          = "join"
	MsgTypeRequestSync   = "requestSync"
	MsgTypeSync          = "sync"
	MsgTypeVideoChange   = "videoChange"
	MsgTypeAddToQueue    = "addToQueue"
	MsgTypePlayFromQueue = "playFromQueue"
	MsgTypeNextVideo     = "nextVideo"
	MsgTypeChat          = "chat"
	MsgTypePing          = "ping"
)

// Outbound message types. sync, videoChange and chat share names with their inbound triggers.
const (
	MsgTypeRoomData    = "roomData"
	MsgTypeUpdateUsers = "updateUsers"
	MsgTypeSyncState   = "syncState"
	MsgTypeQueueUpdate = "queueUpdate"
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type RoomData struct {
	VideoID   string   `json:"videoId"`
	Users     []string `json:"users"`
	Time      float64  `json:"time"`
	IsPlaying bool     `json:"isPlaying"`
}

type UsersUpdate struct {
	Users []string `json:"users"`
}

type SyncState struct {
	VideoID   string  `json:"videoId"`
	Time      float64 `json:"time"`
	IsPlaying bool    `json:"isPlaying"`
}

type PlayerSync struct {
	Action string  `json:"action"`
	Time   float64 `json:"time"`
}

type VideoChange struct {
	VideoID   string  `json:"videoId"`
	Time      float64 `json:"time"`
	IsPlaying bool    `json:"isPlaying"`
}

type QueueUpdate struct {
	Queue []Video `json:"queue"`
}

type ChatMessage struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

type JoinInput struct {
	Room     string `json:"room" validate:"required,max=128"`
	Username string `json:"username" validate:"max=64"`
}

type RequestSyncInput struct {
	Room string `json:"room" validate:"required,max=128"`
}

type SyncInput struct {
	Room   string  `json:"room" validate:"required,max=128"`
	Action string  `json:"action" validate:"oneof=play pause"`
	Time   float64 `json:"time" validate:"gte=0"`
}

type VideoChangeInput struct {
	Room    string `json:"room" validate:"required,max=128"`
	VideoID string `json:"videoId" validate:"required,max=64"`
}

type AddToQueueInput struct {
	Room    string `json:"room" validate:"required,max=128"`
	VideoID string `json:"videoId" validate:"required,max=64"`
}

type PlayFromQueueInput struct {
	Room  string `json:"room" validate:"required,max=128"`
	Index int    `json:"index" validate:"gte=0"`
}

type NextVideoInput struct {
	Room string `json:"room" validate:"required,max=128"`
}

type ChatInput struct {
	Room     string `json:"room" validate:"required,max=128"`
	Message  string `json:"message" validate:"required,max=2000"`
	Username string `json:"username" validate:"max=64"`
}

type PingInput struct{}
