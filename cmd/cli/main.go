package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/wrenhq/wren/internal/config"
	"github.com/wrenhq/wren/internal/feed"
	"github.com/wrenhq/wren/internal/logger"
	"github.com/wrenhq/wren/internal/version"
)

type cliOptions struct {
	configPath  string
	username    string
	password    string
	jwtToken    string
	apiBaseURL  string
	photoPath   string
	timeout     time.Duration
	live        bool
	showVersion bool
}

func main() {
	opts := parseFlags()
	if opts.showVersion {
		fmt.Printf("Wren CLI %s\n", version.GetInfo())
		return
	}
	ctx := context.Background()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)

	if strings.TrimSpace(opts.apiBaseURL) == "" {
		opts.apiBaseURL = defaultAPIBaseURL(cfg.Server.Addr)
	}
	if strings.TrimSpace(opts.apiBaseURL) == "" {
		logger.Error("api url is required")
		os.Exit(1)
	}
	opts.apiBaseURL = normalizeBaseURL(opts.apiBaseURL)

	jwtToken := strings.TrimSpace(opts.jwtToken)
	client := &http.Client{Timeout: opts.timeout}
	if jwtToken == "" {
		username, password, err := resolveLoginCredentials(opts, cfg)
		if err != nil {
			logger.Error("resolve login", slog.Any("error", err))
			os.Exit(1)
		}
		loginCtx := ctx
		if opts.timeout > 0 {
			var cancel context.CancelFunc
			loginCtx, cancel = context.WithTimeout(ctx, opts.timeout)
			defer cancel()
		}
		jwtToken, err = resolveJWTToken(loginCtx, client, opts.apiBaseURL, username, password)
		if err != nil {
			logger.Error("resolve jwt", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if opts.live {
		if err := watchFeed(ctx, opts.apiBaseURL, jwtToken); err != nil {
			logger.Error("live feed failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text != "" || opts.photoPath != "" {
		if err := createPost(ctx, client, opts.apiBaseURL, jwtToken, text, opts.photoPath); err != nil {
			logger.Error("post failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}
	if err := printFeed(ctx, client, opts.apiBaseURL, jwtToken); err != nil {
		logger.Error("fetch feed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func parseFlags() cliOptions {
	var opts cliOptions
	defaultConfig := os.Getenv("CONFIG_PATH")
	if strings.TrimSpace(defaultConfig) == "" {
		defaultConfig = config.DefaultConfigPath
	}

	flag.StringVar(&opts.configPath, "config", defaultConfig, "Path to config.toml")
	flag.StringVar(&opts.username, "username", "", "Username for login")
	flag.StringVar(&opts.password, "password", "", "Password for login (or set WREN_PASSWORD)")
	flag.StringVar(&opts.jwtToken, "jwt", "", "JWT token (optional)")
	flag.StringVar(&opts.apiBaseURL, "api-url", "", "API server base URL (e.g. http://127.0.0.1:8080)")
	flag.StringVar(&opts.photoPath, "photo", "", "Attach an image file to the post")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	flag.BoolVar(&opts.live, "live", false, "Stream the live feed instead of posting")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version information")
	flag.Parse()

	return opts
}

func normalizeBaseURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}

func defaultAPIBaseURL(addr string) string {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return normalizeBaseURL(trimmed)
	}
	if strings.HasPrefix(trimmed, ":") {
		return "http://127.0.0.1" + trimmed
	}
	return "http://" + trimmed
}

func resolveLoginCredentials(opts cliOptions, cfg config.Config) (string, string, error) {
	username := strings.TrimSpace(opts.username)
	if username == "" {
		username = strings.TrimSpace(cfg.Admin.Username)
	}
	if username == "" {
		return "", "", fmt.Errorf("username is required for login")
	}

	password := strings.TrimSpace(opts.password)
	if password == "" {
		password = strings.TrimSpace(os.Getenv("WREN_PASSWORD"))
	}
	if password == "" {
		if candidate := strings.TrimSpace(cfg.Admin.Password); candidate != "" && candidate != "change-your-password-here" {
			password = candidate
		}
	}
	if password == "" {
		return "", "", fmt.Errorf("password is required; pass --password or set WREN_PASSWORD")
	}
	return username, password, nil
}

func resolveJWTToken(ctx context.Context, client *http.Client, baseURL, username, password string) (string, error) {
	resp, err := loginForToken(ctx, client, baseURL, username, password)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return "", fmt.Errorf("login succeeded but token missing")
	}
	return resp.AccessToken, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

func loginForToken(ctx context.Context, client *http.Client, baseURL, username, password string) (loginResponse, error) {
	body, err := json.Marshal(loginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return loginResponse{}, err
	}
	url := normalizeBaseURL(baseURL) + "/auth/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return loginResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return loginResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return loginResponse{}, fmt.Errorf("login failed: %s", strings.TrimSpace(string(payload)))
	}

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return loginResponse{}, err
	}
	return parsed, nil
}

func printFeed(ctx context.Context, client *http.Client, baseURL, jwtToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/feed", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+jwtToken)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api server error: %s", strings.TrimSpace(string(payload)))
	}

	var posts []feed.Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return err
	}
	renderPosts(posts)
	return nil
}

func createPost(ctx context.Context, client *http.Client, baseURL, jwtToken, text, photoPath string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("tweet", text); err != nil {
		return err
	}
	if photoPath != "" {
		f, err := os.Open(photoPath)
		if err != nil {
			return err
		}
		defer f.Close()
		part, err := writer.CreateFormFile("photo", filepath.Base(photoPath))
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/feed", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+jwtToken)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api server error: %s", strings.TrimSpace(string(payload)))
	}

	var post feed.Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return err
	}
	fmt.Printf("Posted %s\n", post.ID)
	return nil
}

// watchFeed subscribes to the live feed over WebSocket and reprints the
// timeline each time a snapshot arrives. Runs until interrupted or the
// server closes the stream.
func watchFeed(ctx context.Context, baseURL, jwtToken string) error {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/feed/live"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + jwtToken}},
	})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		var posts []feed.Post
		if err := wsjson.Read(ctx, conn, &posts); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Printf("--- %s ---\n", time.Now().Format(time.Kitchen))
		renderPosts(posts)
	}
}

func renderPosts(posts []feed.Post) {
	if len(posts) == 0 {
		fmt.Println("(empty feed)")
		return
	}
	for _, post := range posts {
		line := fmt.Sprintf("%s  %s: %s", post.CreatedAt.Local().Format("2006-01-02 15:04"), post.Username, post.Text)
		if post.PhotoURL != "" {
			line += "  [photo]"
		}
		fmt.Println(line)
	}
}
