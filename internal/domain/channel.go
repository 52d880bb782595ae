package domain

import (
	"encoding/json"
	"fmt"
)

// EventSourceNotification marks records delivered by the notification
// channel. Records from other sources are ignored by subscribers.
const EventSourceNotification = "aws:sns"

// ChannelEnvelope is the wrapper a subscriber receives from the channel.
type ChannelEnvelope struct {
	Records []ChannelRecord `json:"Records"`
}

// ChannelRecord is one delivered notification record.
type ChannelRecord struct {
	EventSource string         `json:"EventSource"`
	Sns         ChannelMessage `json:"Sns"`
}

// ChannelMessage is the notification body inside a channel record.
type ChannelMessage struct {
	MessageID string `json:"MessageId"`
	TopicArn  string `json:"TopicArn"`
	Subject   string `json:"Subject"`
	Message   string `json:"Message"`
	Timestamp string `json:"Timestamp"`
}

// ParseNotificationRecord converts a message consumed from the alert topic
// into a channel record. The value is the JSON-encoded [Notification]; the
// message_id and subject headers take precedence when the body omits them.
func ParseNotificationRecord(raw RawEvent) (ChannelRecord, error) {
	var n Notification
	if err := json.Unmarshal(raw.Value, &n); err != nil {
		return ChannelRecord{}, fmt.Errorf("parse notification: %w", err)
	}
	if n.MessageID == "" {
		n.MessageID = raw.Headers["message_id"]
	}
	if n.Subject == "" {
		n.Subject = raw.Headers["subject"]
	}
	if n.Timestamp == "" && !raw.Timestamp.IsZero() {
		n.Timestamp = FormatTimestamp(raw.Timestamp)
	}

	return ChannelRecord{
		EventSource: EventSourceNotification,
		Sns: ChannelMessage{
			MessageID: n.MessageID,
			TopicArn:  raw.Topic,
			Subject:   n.Subject,
			Message:   n.Message,
			Timestamp: n.Timestamp,
		},
	}, nil
}
