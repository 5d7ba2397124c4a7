package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/callqa/domain"
	"github.com/satriahrh/callqa/domain/entities"
	"github.com/satriahrh/callqa/internal/auth"
	"github.com/satriahrh/callqa/internal/metrics"
	"github.com/satriahrh/callqa/internal/prompt"
)

type fakeService struct {
	err      error
	gotBytes []byte
	gotMedia string
	deadline bool
}

func (f *fakeService) ReportReader(ctx context.Context, r io.Reader, mediaType string) (*entities.AnalysisReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.gotBytes = data
	f.gotMedia = mediaType
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	result := entities.NewAnalysisResult(
		[]entities.TranscriptEntry{{Speaker: entities.SpeakerSalesperson, Text: "hello", Timestamp: "00:00"}},
		[]entities.SentimentPoint{{Time: "00:00", Seconds: 0, Score: 50}},
		entities.CoachingReport{Summary: "short call"},
	)
	return entities.NewAnalysisReport(result, entities.ReportMetadata{Model: "mock", MediaType: mediaType, AudioBytes: len(data)}), nil
}

func (f *fakeService) Rubric() prompt.Rubric {
	return prompt.DefaultRubric()
}

func newTestServer(t *testing.T, svc AnalysisService, opts Options) *echo.Echo {
	t.Helper()
	if opts.Timeout == 0 {
		opts.Timeout = time.Minute
	}
	if opts.MaxAudioBytes == 0 {
		opts.MaxAudioBytes = 1 << 20
	}
	e := echo.New()
	InitRoutes(e, svc, opts, zaptest.NewLogger(t))
	return e
}

func uploadRequest(t *testing.T, mediaType string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="audio"; filename="call.mp3"`)
	h.Set("Content-Type", mediaType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, &fakeService{}, Options{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestAnalyses_Success(t *testing.T) {
	svc := &fakeService{}
	e := newTestServer(t, svc, Options{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, uploadRequest(t, "audio/mpeg", []byte("ID3 audio bytes")))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "audio/mpeg", svc.gotMedia)
	assert.Equal(t, []byte("ID3 audio bytes"), svc.gotBytes)
	assert.True(t, svc.deadline, "handler should bound the analysis with a deadline")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "mock", body["model"])
	assert.Contains(t, body, "result")
}

func TestAnalyses_MissingAudio(t *testing.T) {
	e := newTestServer(t, &fakeService{}, Options{})

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("note", "no file here"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_audio")
}

func TestAnalyses_TooLarge(t *testing.T) {
	e := newTestServer(t, &fakeService{}, Options{MaxAudioBytes: 16})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, uploadRequest(t, "audio/wav", bytes.Repeat([]byte{1}, 64)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyses_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"invalid input", domain.NewError(domain.KindInvalidInput, "media type is not audio"), http.StatusBadRequest, ""},
		{"unsupported media", domain.NewError(domain.KindUnsupportedMedia, "text/plain"), http.StatusUnsupportedMediaType, ""},
		{"transport", domain.WrapError(domain.KindInferenceTransport, context.DeadlineExceeded, "inference failed"), http.StatusBadGateway, ""},
		{"empty", domain.NewError(domain.KindEmptyResponse, "no text"), http.StatusBadGateway, ""},
		{"malformed", domain.MalformedResponse(domain.ReasonEmptyTranscript, `{"transcript":[]}`, nil, "transcript is empty"), http.StatusBadGateway, "empty-transcript"},
		{"cancelled", domain.WrapError(domain.KindCancelled, context.DeadlineExceeded, "analysis cancelled"), http.StatusGatewayTimeout, ""},
		{"configuration", domain.NewError(domain.KindConfiguration, "no key"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(t, &fakeService{err: tt.err}, Options{})

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, uploadRequest(t, "audio/mpeg", []byte("x")))

			require.Equal(t, tt.status, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(domain.KindOf(tt.err)), resp.Error)
			assert.Equal(t, tt.reason, resp.Reason)
		})
	}
}

func TestAnalyses_RawResponseNotExposed(t *testing.T) {
	err := domain.MalformedResponse(domain.ReasonInvalidJSON, "secret model output", nil, "response is not valid JSON")
	e := newTestServer(t, &fakeService{err: err}, Options{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, uploadRequest(t, "audio/mpeg", []byte("x")))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret model output")
}

func TestRubricEndpoint(t *testing.T) {
	e := newTestServer(t, &fakeService{}, Options{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rubric", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RubricResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, prompt.DefaultRubric().Name, resp.Name)
	assert.Equal(t, "call-qa.v1", resp.SchemaVersion)
}

func TestBearerAuth(t *testing.T) {
	issuer, err := auth.NewIssuer("test-secret")
	require.NoError(t, err)
	e := newTestServer(t, &fakeService{}, Options{Issuer: issuer})

	analyst, err := issuer.GenerateToken("qa-team", auth.RoleAnalyst, time.Hour)
	require.NoError(t, err)
	other, err := issuer.GenerateToken("someone", "viewer", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong role", "Bearer " + other, http.StatusForbidden},
		{"analyst", "Bearer " + analyst, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/rubric", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	// health stays public
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.ObserveAudio(1024)
	e := newTestServer(t, &fakeService{}, Options{Metrics: m})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "callqa_audio_bytes")
}
