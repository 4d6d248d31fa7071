package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HostUploader posts images to a third-party image hosting API that
// answers with {"success": true, "data": {"url": "..."}}.
type HostUploader struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type hostResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *HostUploader) Upload(ctx context.Context, userID uuid.UUID, ext string, r io.Reader) (string, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(content) > MaxSize {
		return "", ErrTooLarge
	}

	timeout := u.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("key", u.APIKey)
	args.Set("name", userID.String())

	agent := fiber.Post(u.Endpoint).
		Timeout(timeout).
		FileData(&fiber.FormFile{
			Fieldname: "image",
			Name:      objectName(userID, ext),
			Content:   content,
		}).
		MultipartForm(args)

	var resp hostResponse
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return "", fmt.Errorf("image host: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK || !resp.Success || resp.Data.URL == "" {
		msg := resp.Error.Message
		if msg == "" {
			msg = "no url in response"
		}
		return "", fmt.Errorf("image host: status %d: %s", code, msg)
	}
	return resp.Data.URL, nil
}
