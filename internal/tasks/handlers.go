package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"

	"github.com/florentincondu/proiect-web-sub000/internal/email"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/storage"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// HandleEmailDeliveryTask renders a template and hands the message to the sender chain.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email task %s has no recipient: %w", payload.TemplateID, asynq.SkipRetry)
	}

	log.Printf("Sending email task: To=%s, Template=%s", payload.To, payload.TemplateID)

	data := payload.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	if _, ok := data["app_name"]; !ok {
		data["app_name"] = p.cfg.AppName
	}

	subject, body, err := p.templates.Render(ctx, payload.TemplateID, payload.Locale, data)
	if err != nil {
		log.Printf("Error rendering email template %s/%s: %v", payload.TemplateID, payload.Locale, err)
		if errors.Is(err, services.ErrTemplateNotFound) {
			return fmt.Errorf("email template not found: %w", asynq.SkipRetry)
		}
		return err
	}

	rawMessage := BuildMessage(p.fromAddress(payload.To), payload.To, subject, payload.TemplateID, body)
	if err := p.sender.Send(ctx, []string{payload.To}, subject, rawMessage); err != nil {
		log.Printf("Email sending failed, will retry: %v", err)
		return err
	}

	log.Printf("Email task processed successfully: To=%s, Template=%s", payload.To, payload.TemplateID)
	return nil
}

func (p *TaskProcessor) fromAddress(to string) string {
	if p.cfg.SmtpFromAddress != "" {
		return p.cfg.SmtpFromAddress
	}
	log.Printf("Warning: SmtpFromAddress not configured, using fallback for email to %s", to)
	return "noreply@example.com"
}

// BuildMessage assembles a plain-text RFC 822 message.
func BuildMessage(from, to, subject, templateID, body string) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString(fmt.Sprintf("%s: %s\r\n", email.TemplateHeader, templateID))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\r\n") {
		sb.WriteString("\r\n")
	}
	return []byte(sb.String())
}

// HandleImageProcessTask downsizes an uploaded hotel image in place and attaches it to the hotel.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	hotelID, err := utils.ParseSixID(payload.HotelID)
	if err != nil {
		log.Printf("Invalid HotelID in image task payload: %s", payload.HotelID)
		return fmt.Errorf("invalid hotel ID in payload: %w", asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, HotelID=%s", payload.S3Key, payload.HotelID)

	imgData, _, err := p.storage.GetObject(ctx, payload.S3Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Image %s exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(imgData), maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image for key %s: %v", payload.S3Key, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxDim := uint(p.cfg.ImageMaxDimension)
	if uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim {
		resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		log.Printf("Resized image %s to %dx%d", payload.S3Key, resized.Bounds().Dx(), resized.Bounds().Dy())

		if err := p.storage.PutObject(ctx, payload.S3Key, buf.Bytes(), "image/jpeg"); err != nil {
			log.Printf("Error uploading processed image %s to S3: %v", payload.S3Key, err)
			return fmt.Errorf("failed to upload processed image: %w", err)
		}
	}

	imageURL := p.storage.PublicURL(payload.S3Key)
	if err := p.hotels.AddImage(ctx, hotelID, imageURL); err != nil {
		log.Printf("Error adding image %s to hotel %s: %v", imageURL, payload.HotelID, err)
		return fmt.Errorf("failed to update hotel with processed image: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, HotelID=%s", payload.S3Key, payload.HotelID)
	return nil
}
