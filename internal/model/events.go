// Package model defines the relay wire protocol.
package model

import (
	"encoding/json"
	"time"
)

// Event names as they appear on the wire. Client-to-server and
// server-to-client names are disjoint so a payload echoed back by a
// buggy client is never mistaken for a request.
const (
	EventJoinChat          = "joinChat"
	EventJoinedChat        = "joinedChat"
	EventSendMessage       = "sendMessage"
	EventReceiveMessage    = "receiveMessage"
	EventTyping            = "typing"
	EventStopTyping        = "stopTyping"
	EventPeerTyping        = "peerTyping"
	EventPeerStoppedTyping = "peerStoppedTyping"
	EventMarkAsRead        = "markAsRead"
	EventMessagesRead      = "messagesRead"
	EventUserOnline        = "userOnline"
	EventUserOffline       = "userOffline"
)

// Envelope frames every event exchanged over a relay connection.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinChat asks the relay for the two-party room shared with another user.
type JoinChat struct {
	OtherUserID string `json:"otherUserId"`
}

// JoinedChat confirms the resolved room to the requester.
type JoinedChat struct {
	ChatID string `json:"chatId"`
}

// SendMessage carries an outbound chat message. ReceiverID is informational;
// routing is by ChatID. MessageID is client-generated and only used for
// read-receipt correlation.
type SendMessage struct {
	ChatID     string `json:"chatId"`
	Text       string `json:"text"`
	ReceiverID string `json:"receiverId,omitempty"`
	MessageID  string `json:"messageId,omitempty"`
}

// ReceiveMessage is the fan-out of a SendMessage to the other room members.
type ReceiveMessage struct {
	ChatID    string    `json:"chatId"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	MessageID string    `json:"messageId,omitempty"`
}

// TypingState is both the typing and stopTyping request payload.
type TypingState struct {
	ChatID string `json:"chatId"`
}

// PeerTyping is the fan-out of typing/stopTyping to the other room members.
type PeerTyping struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// MarkAsRead reports a set of message IDs as seen by the reader.
type MarkAsRead struct {
	ChatID     string   `json:"chatId"`
	MessageIDs []string `json:"messageIds"`
}

// MessagesRead is the fan-out of a read receipt to the other room members.
type MessagesRead struct {
	ChatID     string    `json:"chatId"`
	MessageIDs []string  `json:"messageIds"`
	ReadBy     string    `json:"readBy"`
	ReadAt     time.Time `json:"readAt"`
}

// PresenceChange is broadcast to every connection when a user transitions
// between online and offline.
type PresenceChange struct {
	UserID string `json:"userId"`
}
