package douyin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/wjllance/douyin-text-extractor/pkg/domain"
	"github.com/wjllance/douyin-text-extractor/pkg/fileutil"
	"github.com/wjllance/douyin-text-extractor/pkg/logger"
)

const (
	defaultPageBase  = "https://www.iesdouyin.com"
	routerDataMarker = "window._ROUTER_DATA"
	scriptClose      = "</script>"

	maxRedirects = 10
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// interstitial keywords: login wall / CAPTCHA pages served instead of the
// share page when anti-bot defenses trigger.
var interstitialMarkers = []string{"captcha", "verify", "登录"}

// Resolver turns free-form share text into a VideoDescriptor by following
// the share link and parsing the embedded page payload.
type Resolver struct {
	hc        *http.Client
	userAgent string
	pageBase  string
	sleep     func(time.Duration)
}

func NewResolver(userAgent string, timeout time.Duration) *Resolver {
	return &Resolver{
		hc: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: userAgent,
		pageBase:  defaultPageBase,
		sleep:     time.Sleep,
	}
}

// attemptFailure is one retryable failed attempt.
type attemptFailure struct {
	class  failureClass
	detail string
	err    error
}

// Resolve extracts the share URL from text and resolves it to a video
// descriptor, retrying transient failures up to maxAttempts times.
func (r *Resolver) Resolve(ctx context.Context, shareText string, maxAttempts int) (domain.VideoDescriptor, error) {
	shareURL := urlPattern.FindString(shareText)
	if shareURL == "" {
		return domain.VideoDescriptor{}, domain.ErrNoShareURL
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last attemptFailure
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		desc, failure := r.attempt(ctx, shareURL)
		if failure == nil {
			return desc, nil
		}
		last = *failure

		slog.Debug("share link resolution attempt failed",
			"attempt", attempt,
			"class", failure.class.String(),
			"detail", failure.detail,
		)

		if attempt < maxAttempts {
			delay := backoffDelay(failure.class, attempt)
			select {
			case <-ctx.Done():
				return domain.VideoDescriptor{}, ctx.Err()
			default:
			}
			r.sleep(delay)
		}
	}

	return domain.VideoDescriptor{}, &domain.ResolutionError{
		Attempts: maxAttempts,
		Detail:   last.detail,
		Err:      last.err,
	}
}

// attempt performs one full resolution pass: redirect resolution, page
// fetch, payload extraction.
func (r *Resolver) attempt(ctx context.Context, shareURL string) (domain.VideoDescriptor, *attemptFailure) {
	videoID, err := r.resolveVideoID(ctx, shareURL)
	if err != nil {
		return domain.VideoDescriptor{}, &attemptFailure{
			class:  classRequest,
			detail: "resolving share redirect",
			err:    err,
		}
	}

	body, err := r.fetchSharePage(ctx, videoID)
	if err != nil {
		return domain.VideoDescriptor{}, &attemptFailure{
			class:  classRequest,
			detail: "fetching share page",
			err:    err,
		}
	}

	if marker, ok := detectInterstitial(body); ok {
		return domain.VideoDescriptor{}, &attemptFailure{
			class:  classInterstitial,
			detail: fmt.Sprintf("interstitial detected (%q in page body)", marker),
		}
	}

	desc, err := parseSharePage(body, videoID)
	if err != nil {
		return domain.VideoDescriptor{}, &attemptFailure{
			class:  classParse,
			detail: err.Error(),
			err:    err,
		}
	}
	return desc, nil
}

// resolveVideoID follows the short link's redirects and takes the last path
// segment of the final URL as the video identifier.
func (r *Resolver) resolveVideoID(ctx context.Context, shareURL string) (string, error) {
	resp, err := r.get(ctx, shareURL)
	if err != nil {
		return "", err
	}
	defer closeBody(resp.Body)
	// body is irrelevant here, only the final redirected URL matters
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	finalURL := resp.Request.URL
	segments := strings.Split(strings.Trim(finalURL.Path, "/"), "/")
	id := segments[len(segments)-1]
	if id == "" {
		return "", fmt.Errorf("no video id in resolved url %s", finalURL)
	}
	return id, nil
}

func (r *Resolver) fetchSharePage(ctx context.Context, videoID string) (string, error) {
	pageURL := fmt.Sprintf("%s/share/video/%s/", r.pageBase, videoID)
	resp, err := r.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("share page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading share page: %w", err)
	}
	return string(body), nil
}

func (r *Resolver) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

func detectInterstitial(body string) (string, bool) {
	lower := strings.ToLower(body)
	for _, m := range interstitialMarkers {
		if strings.Contains(lower, m) {
			return m, true
		}
	}
	return "", false
}

// routerData is the embedded page payload. The loader keys are literal:
// the share page renders "video_(id)/page" / "note_(id)/page" verbatim.
type routerData struct {
	LoaderData map[string]loaderPage `json:"loaderData"`
}

type loaderPage struct {
	VideoInfoRes videoInfoRes `json:"videoInfoRes"`
}

type videoInfoRes struct {
	ItemList []videoItem `json:"item_list"`
}

type videoItem struct {
	Desc  string `json:"desc"`
	Video struct {
		PlayAddr struct {
			URLList []string `json:"url_list"`
		} `json:"play_addr"`
	} `json:"video"`
}

var loaderKeys = []string{"video_(id)/page", "note_(id)/page"}

// parseSharePage extracts the embedded JSON assignment and builds a
// descriptor from its first item.
func parseSharePage(body, videoID string) (domain.VideoDescriptor, error) {
	raw, err := extractRouterData(body)
	if err != nil {
		return domain.VideoDescriptor{}, err
	}

	var data routerData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return domain.VideoDescriptor{}, fmt.Errorf("decoding %s payload: %w", routerDataMarker, err)
	}

	var page *loaderPage
	for _, key := range loaderKeys {
		if p, ok := data.LoaderData[key]; ok {
			page = &p
			break
		}
	}
	if page == nil {
		return domain.VideoDescriptor{}, fmt.Errorf("neither %q nor %q present in loaderData", loaderKeys[0], loaderKeys[1])
	}

	items := page.VideoInfoRes.ItemList
	if len(items) == 0 {
		return domain.VideoDescriptor{}, errors.New("item_list is empty")
	}
	item := items[0]

	urls := item.Video.PlayAddr.URLList
	if len(urls) == 0 {
		return domain.VideoDescriptor{}, errors.New("video.play_addr.url_list is empty")
	}
	// the page exposes the watermarked variant; the unwatermarked one lives
	// at the same URL with the path segment swapped
	mediaURL := strings.Replace(urls[0], "playwm", "play", 1)

	desc := item.Desc
	if desc == "" {
		desc = "douyin_" + videoID
	}

	return domain.VideoDescriptor{
		VideoID:        videoID,
		Title:          fileutil.SanitizeFilename(desc),
		DirectMediaURL: mediaURL,
		Description:    desc,
	}, nil
}

// extractRouterData slices the JSON object assigned to the router-data
// global out of the page markup.
func extractRouterData(body string) (string, error) {
	idx := strings.Index(body, routerDataMarker)
	if idx < 0 {
		return "", fmt.Errorf("%s marker not found in page", routerDataMarker)
	}
	rest := body[idx+len(routerDataMarker):]

	start := strings.Index(rest, "{")
	if start < 0 {
		return "", fmt.Errorf("no JSON object after %s marker", routerDataMarker)
	}
	rest = rest[start:]

	end := strings.Index(rest, scriptClose)
	if end < 0 {
		return "", fmt.Errorf("no closing script tag after %s marker", routerDataMarker)
	}

	raw := strings.TrimSpace(rest[:end])
	raw = strings.TrimSuffix(raw, ";")
	return raw, nil
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		slog.Error("closing response body", logger.Err(err))
	}
}
