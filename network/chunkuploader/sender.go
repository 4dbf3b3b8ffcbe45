package chunkuploader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bitrise-io/go-fcs/signature"
	"github.com/bitrise-io/go-utils/v2/log"
)

const maxErrorBodySize = 1024

// HTTPSender sends chunks as signed PUT requests.
type HTTPSender struct {
	baseURL       string
	signer        signature.Signer
	httpClient    *http.Client
	lowSpeedLimit int64
	lowSpeedTime  time.Duration
	logger        log.Logger
	now           func() time.Time
}

// NewHTTPSender returns a sender targeting the service at baseURL.
func NewHTTPSender(config Config, baseURL string, signer signature.Signer, logger log.Logger) *HTTPSender {
	config = config.withDefaults()

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = DefaultHTTPClient(config.ConnectTimeout)
	}

	return &HTTPSender{
		baseURL:       strings.TrimRight(baseURL, "/"),
		signer:        signer,
		httpClient:    httpClient,
		lowSpeedLimit: config.LowSpeedLimit,
		lowSpeedTime:  config.LowSpeedTime,
		logger:        logger,
		now:           time.Now,
	}
}

// CloseIdleConnections closes idle connections in the HTTP client.
func (s *HTTPSender) CloseIdleConnections() {
	s.httpClient.CloseIdleConnections()
}

type chunkAck struct {
	Status  json.RawMessage `json:"Status"`
	Message string          `json:"Message"`
}

// SendChunk implements ChunkSender.
func (s *HTTPSender) SendChunk(ctx context.Context, req ChunkRequest) error {
	path := strings.TrimLeft(req.Destination, "/")
	query := fmt.Sprintf("name=%s&chunk=%d&chunks=%d", url.QueryEscape(req.Name), req.Index, req.Count)
	chunkURL := s.baseURL + "/" + path + "?" + query

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	body := &countingReader{r: req.Body}
	watch := newStallWatch(s.lowSpeedLimit, s.lowSpeedTime)
	go watch.run(attemptCtx, cancel, body)

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPut, chunkURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.ContentLength = req.Size
	httpReq.Header.Set("Date", s.now().UTC().Format(http.TimeFormat))
	httpReq.Header.Set("Content-Type", req.ContentType)
	httpReq.Header.Set("Content-Length", strconv.FormatInt(req.Size, 10))
	httpReq.Header.Set("Authorization", s.signer.Authorization(http.MethodPut, path))

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		if watch.stalled() {
			return fmt.Errorf("%w: less than %d bytes/s for %s", ErrStalled, s.lowSpeedLimit, s.lowSpeedTime)
		}
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Printf("%s", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &ChunkError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(errorBody))}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read acknowledgment: %w", err)
	}
	s.logger.Debugf("Chunk %d/%d acknowledgment: %s", req.Index+1, req.Count, respBody)

	return checkAck(respBody)
}

func checkAck(body []byte) error {
	var ack chunkAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return &ChunkError{StatusCode: http.StatusOK, Message: fmt.Sprintf("invalid acknowledgment: %s", err)}
	}

	status, err := strconv.Atoi(strings.Trim(string(ack.Status), `"`))
	if err != nil {
		return &ChunkError{StatusCode: http.StatusOK, Message: fmt.Sprintf("acknowledgment without status: %s", body)}
	}
	if status != http.StatusOK {
		return &ChunkError{StatusCode: http.StatusOK, AckStatus: status, Message: ack.Message}
	}
	return nil
}
