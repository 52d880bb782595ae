package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotificationRecord(t *testing.T) {
	t.Run("body fields", func(t *testing.T) {
		raw := RawEvent{
			Topic: "disaster-alerts",
			Value: []byte(`{"message_id":"m-1","subject":"🚨 HIGH DISASTER ALERT - 1 Warning(s)","message":"body","timestamp":"2024-03-01T12:00:00Z"}`),
		}
		rec, err := ParseNotificationRecord(raw)
		require.NoError(t, err)

		assert.Equal(t, EventSourceNotification, rec.EventSource)
		assert.Equal(t, ChannelMessage{
			MessageID: "m-1",
			TopicArn:  "disaster-alerts",
			Subject:   "🚨 HIGH DISASTER ALERT - 1 Warning(s)",
			Message:   "body",
			Timestamp: "2024-03-01T12:00:00Z",
		}, rec.Sns)
	})

	t.Run("header fallback", func(t *testing.T) {
		raw := RawEvent{
			Topic:     "disaster-alerts",
			Value:     []byte(`{"message":"body"}`),
			Headers:   map[string]string{"message_id": "m-2", "subject": "subj"},
			Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		}
		rec, err := ParseNotificationRecord(raw)
		require.NoError(t, err)

		assert.Equal(t, "m-2", rec.Sns.MessageID)
		assert.Equal(t, "subj", rec.Sns.Subject)
		assert.Equal(t, "2024-03-01T12:00:00Z", rec.Sns.Timestamp)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseNotificationRecord(RawEvent{Value: []byte("{bad")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse notification")
	})
}

func TestChannelEnvelope_JSON(t *testing.T) {
	data := []byte(`{"Records":[
		{"EventSource":"aws:sns","Sns":{"MessageId":"m-1","Subject":"S","Message":"M"}},
		{"EventSource":"aws:sqs","Sns":{}}
	]}`)

	var env ChannelEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	require.Len(t, env.Records, 2)
	assert.Equal(t, EventSourceNotification, env.Records[0].EventSource)
	assert.Equal(t, "m-1", env.Records[0].Sns.MessageID)
	assert.Equal(t, "aws:sqs", env.Records[1].EventSource)
}

func TestParseReadingSet(t *testing.T) {
	data := []byte(`{"timestamp":"2024-01-01T00:00:00Z","sensors":{"water_level":{"sensor_id":"WL001","value":13,"unit":"meters","location":"River Basin A"}}}`)
	rs, err := ParseReadingSet(data)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01T00:00:00Z", rs.Timestamp)
	require.NotNil(t, rs.Sensors.WaterLevel)
	assert.Equal(t, 13.0, rs.Sensors.WaterLevel.Value)
	assert.Nil(t, rs.Sensors.Vibration)
	assert.Nil(t, rs.Sensors.Weather)

	_, err = ParseReadingSet([]byte(`not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse reading set")
}
