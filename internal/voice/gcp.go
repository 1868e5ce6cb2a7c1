package voice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/websy-backend/internal/platform/ctxutil"
	"github.com/yungbote/websy-backend/internal/platform/logger"
)

// ErrBadAudio is returned when the provider rejects the clip itself.
var ErrBadAudio = errors.New("audio could not be recognized")

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// GCPInput transcribes short voice clips with Cloud Speech-to-Text.
type GCPInput struct {
	log          *logger.Logger
	recognize    recognizeFunc
	close        func() error
	languageCode string
	maxRetries   int
	backoff      time.Duration
}

func NewGCPInput(ctx context.Context, log *logger.Logger, languageCode string) (*GCPInput, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := speech.NewClient(ctx, clientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	in := newGCPInput(log, languageCode, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return c.Recognize(ctx, req)
	})
	in.close = c.Close
	return in, nil
}

func newGCPInput(log *logger.Logger, languageCode string, fn recognizeFunc) *GCPInput {
	if strings.TrimSpace(languageCode) == "" {
		languageCode = "es-ES"
	}
	return &GCPInput{
		log:          log.With("service", "voice.GCPInput"),
		recognize:    fn,
		close:        func() error { return nil },
		languageCode: languageCode,
		maxRetries:   2,
		backoff:      500 * time.Millisecond,
	}
}

func (g *GCPInput) Supported() bool { return g != nil && g.recognize != nil }

func (g *GCPInput) Close() error {
	if g == nil || g.close == nil {
		return nil
	}
	return g.close()
}

// Transcribe sends the clip inline and joins the top alternative of every
// result.
func (g *GCPInput) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	ctx = ctxutil.Default(ctx)
	if len(audio) == 0 {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   inferEncoding(mimeType),
			LanguageCode:               g.languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}

	resp, err := g.retry(ctx, func() (*speechpb.RecognizeResponse, error) {
		return g.recognize(ctx, req)
	})
	if err != nil {
		if status.Code(err) == codes.InvalidArgument {
			return "", fmt.Errorf("%w: %v", ErrBadAudio, status.Convert(err).Message())
		}
		return "", fmt.Errorf("speech recognize: %w", err)
	}
	text := joinTranscripts(resp)
	g.log.Debug("voice clip transcribed", "bytes", len(audio), "mime", mimeType, "transcript", text)
	return text, nil
}

func (g *GCPInput) retry(ctx context.Context, fn func() (*speechpb.RecognizeResponse, error)) (*speechpb.RecognizeResponse, error) {
	backoff := g.backoff
	var last error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == g.maxRetries {
			break
		}
		g.log.Warn("speech recognize retry", "attempt", attempt+1, "code", code.String())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, last
}

func joinTranscripts(resp *speechpb.RecognizeResponse) string {
	if resp == nil {
		return ""
	}
	parts := make([]string, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// inferEncoding maps the browser's recording mime type. Unknown types are
// left unspecified so the service can sniff WAV/FLAC headers.
func inferEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.Contains(m, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mp3"), strings.Contains(m, "mpeg"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	case strings.Contains(m, "ogg"), strings.Contains(m, "opus"):
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
