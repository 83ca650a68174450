package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/partons-hub/partons/internal/cache"
	"github.com/partons-hub/partons/internal/logging"
	"github.com/partons-hub/partons/internal/resource"
	"github.com/partons-hub/partons/internal/version"
)

// 获取日志中的缓存状态
const (
	stateRegularHit  = "regular_hit"
	stateOriginalHit = "original_hit"
	stateMiss        = "miss"
)

// fetch 返回 data 的 Regular 字节，仅当 Regular 与 Original 均未缓存时才从 url 下载。
// 同一资源的并发调用共享一次执行；共享执行不随调用方取消，
// 已取消的调用方只是停止等待，不影响其他调用方。
func (s *Source) fetch(ctx context.Context, url string, data resource.Data) ([]byte, error) {
	regular := resource.New(data, resource.Regular)
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(regular.Path(), func() (interface{}, error) {
		return s.fetchOnce(shared, url, regular)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (s *Source) fetchOnce(ctx context.Context, url string, regular resource.Resource) ([]byte, error) {
	started := time.Now()

	content, err := s.store.Read(ctx, regular)
	if err == nil {
		s.logFetch(regular, stateRegularHit, url, started, nil)
		return content, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.logFetch(regular, stateRegularHit, url, started, err)
		return nil, err
	}

	content, state, err := s.converted(ctx, url, regular.Data)
	if err != nil {
		s.logFetch(regular, state, url, started, err)
		return nil, err
	}

	if _, err := s.store.Write(ctx, regular, content); err != nil {
		s.logger.WithFields(logging.FetchFields(s.cfg.Name, regular.String(), state)).
			WithError(err).Error("cache_write_failed")
		return nil, err
	}
	s.logFetch(regular, state, url, started, nil)
	return content, nil
}

// converted 由 Original 形态生成 Regular 字节，未命中时先下载并解包。
func (s *Source) converted(ctx context.Context, url string, data resource.Data) ([]byte, string, error) {
	original := resource.New(data, resource.Original)

	state := stateOriginalHit
	content, err := s.store.Read(ctx, original)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrNotFound):
		state = stateMiss
		if url == "" {
			return nil, state, fmt.Errorf("%s: no remote location", original)
		}
		content, err = s.download(ctx, url)
		if err != nil {
			return nil, state, err
		}
		if _, err := s.store.Write(ctx, original, content); err != nil {
			return nil, state, err
		}
		content, err = s.store.Unpack(ctx, original, s.format, content)
		if err != nil {
			return nil, state, &convertError{data: data, err: err}
		}
	default:
		return nil, state, err
	}

	out, err := s.format.Convert(content, data)
	if err != nil {
		return nil, state, &convertError{data: data, err: err}
	}
	return out, state, nil
}

// download 执行 GET，传输错误与 5xx 时有限次重试。
func (s *Source) download(ctx context.Context, url string) ([]byte, error) {
	backoff := s.initialBackoff
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.WithFields(logrus.Fields{
				"source":  s.cfg.Name,
				"url":     url,
				"attempt": attempt,
				"backoff": backoff.String(),
			}).WithError(lastErr).Warn("fetch_retry")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-s.sleep(backoff):
			}
			backoff *= 2
		}

		body, retryable, err := s.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (s *Source) get(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode >= 500, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, false, nil
}

func (s *Source) logFetch(r resource.Resource, state, url string, started time.Time, err error) {
	fields := logging.FetchFields(s.cfg.Name, r.String(), state)
	fields["action"] = "fetch"
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if state == stateMiss && url != "" {
		fields["upstream"] = url
	}
	if err != nil {
		fields["error"] = err.Error()
		s.logger.WithFields(fields).Error("fetch_failed")
		return
	}
	s.logger.WithFields(fields).Info("fetch_complete")
}
