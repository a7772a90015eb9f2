package speechclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daleyadrichem/SpeechLLMOrchestrator/config"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/internal/speechclient"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/internal/upstream"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newClient(t *testing.T, url string) *speechclient.SpeechClient {
	t.Helper()
	ep, err := config.NewServiceEndpoint("STT_BASE_URL", url)
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	caller := upstream.NewClient(upstream.CategoryTranscription, 5*time.Second)
	return speechclient.NewSpeechClient(ep, caller, quietLogger())
}

func TestSpeechClient_Transcribe(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/use-cases/transcribe" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		if header.Filename != "hello.wav" {
			t.Errorf("Filename: got %s, want hello.wav", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("Content-Type: got %s, want audio/wav", ct)
		}
		if string(data) != "fake-pcm" {
			t.Errorf("Data: got %q", data)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transcript":"Hello world."}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL+"/")
	transcript, err := client.Transcribe(context.Background(), models.AudioUpload{
		Filename:    "hello.wav",
		ContentType: "audio/wav",
		Data:        []byte("fake-pcm"),
	})
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if transcript != "Hello world." {
		t.Errorf("Transcript: got %q, want %q", transcript, "Hello world.")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly one upstream call, got %d", n)
	}
}

func TestSpeechClient_TranscribeUpstreamError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.Transcribe(context.Background(), models.AudioUpload{Filename: "a.wav", Data: []byte{1}})

	var svcErr *upstream.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.Category != upstream.CategoryTranscription {
		t.Errorf("Category: got %s", svcErr.Category)
	}
	if svcErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode: got %d", svcErr.StatusCode)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("failed call must not be retried, got %d calls", n)
	}
}

func TestSpeechClient_TranscribeMissingField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"Hello world."}`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	transcript, err := client.Transcribe(context.Background(), models.AudioUpload{Filename: "a.wav", Data: []byte{1}})

	var contractErr *upstream.ContractError
	if !errors.As(err, &contractErr) {
		t.Fatalf("expected ContractError, got %v (transcript %q)", err, transcript)
	}
	if contractErr.Category != upstream.CategoryTranscription {
		t.Errorf("Category: got %s", contractErr.Category)
	}
}

func TestSpeechClient_TranscribeMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>ok</html>`))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.Transcribe(context.Background(), models.AudioUpload{Filename: "a.wav", Data: []byte{1}})
	if !upstream.IsContractError(err) {
		t.Fatalf("expected ContractError, got %v", err)
	}
}

type recordingCaller struct {
	url  string
	file upstream.FileField
	body []byte
	err  error
}

func (r *recordingCaller) PostMultipart(_ context.Context, url string, file upstream.FileField) ([]byte, error) {
	r.url = url
	r.file = file
	return r.body, r.err
}

func (r *recordingCaller) PostJSON(context.Context, string, any) ([]byte, error) {
	return nil, errors.New("unexpected JSON call")
}

func TestSpeechClient_PassesUploadThrough(t *testing.T) {
	caller := &recordingCaller{body: []byte(`{"transcript":"  keep  spacing \n"}`)}
	client := speechclient.NewSpeechClient("https://stt.example.com", caller, quietLogger())

	audio := models.AudioUpload{Filename: "memo.m4a", ContentType: "audio/mp4", Data: []byte{0, 1, 2}}
	transcript, err := client.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}

	if transcript != "  keep  spacing \n" {
		t.Errorf("transcript was altered: %q", transcript)
	}
	if caller.url != "https://stt.example.com/use-cases/transcribe" {
		t.Errorf("URL: got %s", caller.url)
	}
	if caller.file.FieldName != "file" || caller.file.FileName != "memo.m4a" || caller.file.ContentType != "audio/mp4" {
		t.Errorf("file field: got %+v", caller.file)
	}
	if string(caller.file.Data) != string(audio.Data) {
		t.Errorf("data: got %v", caller.file.Data)
	}
}
