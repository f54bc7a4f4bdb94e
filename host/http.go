package host

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fluxion-lang/fluxion/lang"
)

// DefaultTimeout bounds a probe when the script gives none.
const DefaultTimeout = 5 * time.Second

// DefaultPreview is the body preview length for http_get.
const DefaultPreview = 512

// httpHead issues a HEAD request and returns a result record. Failures
// never abort the run; they produce {ok: false, error: ...} records.
func (r *Registry) httpHead(ctx context.Context, inv lang.Invocation) (any, error) {
	target := probeURL(inv)
	if target == "" {
		return headFailure("missing url"), nil
	}

	resp, elapsed, err := r.do(ctx, http.MethodHead, target, inv)
	if err != nil {
		return headFailure(err.Error()), nil
	}
	defer resp.Body.Close()

	contentLength, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)

	record := lang.NewMap()
	record.Set("ok", resp.StatusCode < 400)
	record.Set("status", int64(resp.StatusCode))
	record.Set("elapsed_ms", elapsed.Milliseconds())
	record.Set("length", contentLength)
	record.Set("headers", headerMap(resp.Header))

	return record, nil
}

// httpGet issues a GET request and returns a result record including a
// bounded body preview.
func (r *Registry) httpGet(ctx context.Context, inv lang.Invocation) (any, error) {
	target := probeURL(inv)
	if target == "" {
		return getFailure("missing url"), nil
	}

	resp, elapsed, err := r.do(ctx, http.MethodGet, target, inv)
	if err != nil {
		return getFailure(err.Error()), nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	preview := int(floatArg(inv, "preview", DefaultPreview))
	if preview > len(body) {
		preview = len(body)
	}
	if preview < 0 {
		preview = 0
	}

	record := lang.NewMap()
	record.Set("ok", resp.StatusCode < 400)
	record.Set("status", int64(resp.StatusCode))
	record.Set("elapsed_ms", elapsed.Milliseconds())
	record.Set("length", int64(len(body)))
	record.Set("text_preview", string(body[:preview]))
	record.Set("headers", headerMap(resp.Header))

	return record, nil
}

// beacon fires a DNS lookup followed by an HTTP GET against an
// out-of-band callback host, returning {ok, status, elapsed_ms, url}.
// The DNS query is fire-and-forget: its outcome never affects the record.
func (r *Registry) beacon(ctx context.Context, inv lang.Invocation) (any, error) {
	params := beaconParams(inv)

	if params.sub == "" || params.domain == "" {
		return errRecordMsg("missing sub or domain"), nil
	}

	fqdn := strings.Trim(params.sub+"."+params.domain, ".")

	if _, err := net.DefaultResolver.LookupHost(ctx, fqdn); err != nil {
		r.logger.TraceContext(ctx, "beacon dns lookup failed",
			slog.String("fqdn", fqdn),
			slog.String("error", err.Error()),
		)
	}

	target := params.scheme + "://" + fqdn + params.path
	if len(params.query) > 0 {
		target += "?" + params.query.Encode()
	}

	resp, elapsed, err := r.do(ctx, http.MethodGet, target, inv)

	record := lang.NewMap()
	if err != nil {
		record.Set("ok", false)
		record.Set("status", int64(0))
		record.Set("elapsed_ms", int64(0))
		record.Set("url", target)
		record.Set("error", err.Error())
		return record, nil
	}
	defer resp.Body.Close()

	record.Set("ok", resp.StatusCode < 400)
	record.Set("status", int64(resp.StatusCode))
	record.Set("elapsed_ms", elapsed.Milliseconds())
	record.Set("url", target)

	return record, nil
}

// do performs one bounded HTTP request, reporting elapsed wall time.
func (r *Registry) do(ctx context.Context, method, target string, inv lang.Invocation) (*http.Response, time.Duration, error) {
	timeout := time.Duration(floatArg(inv, "timeout", DefaultTimeout.Seconds()) * float64(time.Second))
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, 0, err
	}

	verify, _ := inv.Get("verify").(bool)

	client := &http.Client{
		Transport: &http.Transport{
			// Probe targets routinely carry self-signed certificates;
			// verification is opt-in via the verify argument.
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !verify},
		},
	}

	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	return resp, time.Since(start), nil
}

type beaconConfig struct {
	sub    string
	domain string
	path   string
	scheme string
	query  url.Values
}

// beaconParams merges named arguments over positional ones. A leading
// positional map contributes its entries before sub/domain/path
// positionals are considered.
func beaconParams(inv lang.Invocation) beaconConfig {
	merged := lang.NewMap()

	positional := inv.Args
	if len(positional) > 0 {
		if m, ok := positional[0].(*lang.Map); ok {
			for _, key := range m.Keys() {
				v, _ := m.Get(key)
				merged.Set(key, v)
			}
			positional = positional[1:]
		}
	}

	if inv.Named != nil {
		for _, key := range inv.Named.Keys() {
			v, _ := inv.Named.Get(key)
			merged.Set(key, v)
		}
	}

	get := func(key string, at int, fallback string) string {
		if v, ok := merged.Get(key); ok && lang.Format(v) != "" {
			return lang.Format(v)
		}
		if at >= 0 && at < len(positional) {
			return lang.Format(positional[at])
		}
		return fallback
	}

	cfg := beaconConfig{
		sub:    get("sub", 0, ""),
		domain: get("domain", 1, ""),
		path:   get("path", 2, "/"),
		scheme: get("scheme", -1, "http"),
		query:  url.Values{},
	}

	if q, ok := merged.Get("q"); ok {
		if qm, ok := q.(*lang.Map); ok {
			for _, key := range qm.Keys() {
				v, _ := qm.Get(key)
				cfg.query.Set(key, lang.Format(v))
			}
		}
	}

	return cfg
}

// probeURL extracts the request target from the named argument "url" or
// the first positional argument.
func probeURL(inv lang.Invocation) string {
	if v := inv.Get("url"); v != nil {
		return lang.Format(v)
	}

	if v := inv.Arg(0); v != nil {
		return lang.Format(v)
	}

	return ""
}

// floatArg reads a numeric named argument, accepting either numeric type.
func floatArg(inv lang.Invocation, key string, fallback float64) float64 {
	switch v := inv.Get(key).(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return fallback
	}
}

func headerMap(h http.Header) *lang.Map {
	m := lang.NewMap()
	for key, values := range h {
		m.Set(key, strings.Join(values, ", "))
	}

	return m
}

func headFailure(msg string) *lang.Map {
	record := lang.NewMap()
	record.Set("ok", false)
	record.Set("status", int64(0))
	record.Set("elapsed_ms", int64(0))
	record.Set("length", int64(0))
	record.Set("error", msg)
	record.Set("headers", lang.NewMap())

	return record
}

func getFailure(msg string) *lang.Map {
	record := headFailure(msg)
	record.Set("text_preview", "")

	return record
}
