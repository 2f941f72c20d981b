package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWhatsApp(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
		wantErr error
	}{
		{
			name:    "text",
			payload: `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":"5511999","type":"text","text":{"body":"quero viajar"}}]}}]}]}`,
			want:    WhatsAppText{From: "5511999", Body: "quero viajar"},
		},
		{
			name:    "audio",
			payload: `{"entry":[{"changes":[{"value":{"messages":[{"from":"5511999","type":"audio","audio":{"id":"m-1","mime_type":"audio/ogg; codecs=opus"}}]}}]}]}`,
			want:    WhatsAppAudio{From: "5511999", MediaID: "m-1", MimeType: "audio/ogg; codecs=opus"},
		},
		{
			name:    "status callback",
			payload: `{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid","status":"read"}]}}]}]}`,
			wantErr: ErrUnsupportedEvent,
		},
		{
			name:    "image is unsupported",
			payload: `{"entry":[{"changes":[{"value":{"messages":[{"from":"1","type":"image","image":{"id":"x"}}]}}]}]}`,
			wantErr: ErrUnsupportedEvent,
		},
		{
			name:    "no text and no audio",
			payload: `{"entry":[{"changes":[{"value":{"messages":[{"from":"1","type":"text"}]}}]}]}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "empty entry",
			payload: `{"entry":[]}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "not json",
			payload: `{"entry":`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "missing sender",
			payload: `{"entry":[{"changes":[{"value":{"messages":[{"type":"text","text":{"body":"oi"}}]}}]}]}`,
			wantErr: ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeWhatsApp([]byte(tt.payload))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInstagram(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
		wantErr error
	}{
		{
			name:    "direct message",
			payload: `{"object":"instagram","entry":[{"messaging":[{"sender":{"id":"ig-1"},"message":{"text":"oi"}}]}]}`,
			want:    InstagramDM{SenderID: "ig-1", Text: "oi"},
		},
		{
			name:    "comment",
			payload: `{"object":"instagram","entry":[{"changes":[{"field":"comments","value":{"id":"c-1","text":"Qual o valor?","from":{"id":"ig-2"}}}]}]}`,
			want:    InstagramComment{FromID: "ig-2", CommentID: "c-1", Text: "Qual o valor?"},
		},
		{
			name:    "echo of our own message",
			payload: `{"entry":[{"messaging":[{"sender":{"id":"page"},"message":{"text":"oi","is_echo":true}}]}]}`,
			wantErr: ErrUnsupportedEvent,
		},
		{
			name:    "mention change",
			payload: `{"entry":[{"changes":[{"field":"mentions","value":{"text":"x","from":{"id":"1"}}}]}]}`,
			wantErr: ErrUnsupportedEvent,
		},
		{
			name:    "message without text",
			payload: `{"entry":[{"messaging":[{"sender":{"id":"ig-1"},"message":{}}]}]}`,
			wantErr: ErrMalformedPayload,
		},
		{
			name:    "entry without content",
			payload: `{"entry":[{}]}`,
			wantErr: ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInstagram([]byte(tt.payload))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectAndProvider(t *testing.T) {
	obj, err := Object([]byte(`{"object":"instagram","entry":[]}`))
	require.NoError(t, err)
	p, ok := ProviderForObject(obj)
	assert.True(t, ok)
	assert.Equal(t, ProviderInstagram, p)

	_, ok = ProviderForObject("page")
	assert.False(t, ok)

	_, err = Decode(Provider("telegram"), []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnsupportedEvent)
}
