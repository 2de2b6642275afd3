package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // registered for image.Decode
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/notify"
	"github.com/jacqueschris/ownerlist/internal/services"
	"github.com/jacqueschris/ownerlist/internal/storage"
)

// Background task types.
const (
	TypeImageProcess  = "image:process"
	TypeListingExpire = "listing:expire"
	TypeAlertMatch    = "alert:match"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// ImageTaskPayload carries one uploaded image through normalization.
type ImageTaskPayload struct {
	S3Key      string `json:"s3_key"`
	PropertyID string `json:"property_id"`
}

// AlertMatchPayload names the newly created listing to match against saved
// searches.
type AlertMatchPayload struct {
	PropertyID string `json:"property_id"`
}

// EnqueueImageProcess queues an uploaded image for normalization.
func EnqueueImageProcess(client *asynq.Client, s3Key, propertyID string) error {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, PropertyID: propertyID})
	if err != nil {
		return fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	_, err = client.Enqueue(asynq.NewTask(TypeImageProcess, payload), asynq.Queue("images"))
	return err
}

// EnqueueAlertMatch queues a freshly created listing for saved-search matching.
func EnqueueAlertMatch(client *asynq.Client, propertyID string) error {
	payload, err := json.Marshal(AlertMatchPayload{PropertyID: propertyID})
	if err != nil {
		return fmt.Errorf("failed to marshal alert match payload: %w", err)
	}
	_, err = client.Enqueue(asynq.NewTask(TypeAlertMatch, payload))
	return err
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg             *config.Config
	propertyService services.IPropertyService
	alertService    services.IAlertService
	storageService  storage.IS3Storage
	notifier        notify.Sender
	s3Client        *s3.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	propertyService services.IPropertyService,
	alertService services.IAlertService,
	storageService storage.IS3Storage,
	notifier notify.Sender,
	s3Client *s3.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:             cfg,
		propertyService: propertyService,
		alertService:    alertService,
		storageService:  storageService,
		notifier:        notifier,
		s3Client:        s3Client,
	}
}

// SetupServer configures and returns an Asynq server with the task mux.
// The caller decides when to run and shut it down.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
				"images":   5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
	mux.HandleFunc(TypeListingExpire, processor.HandleListingExpireTask)
	mux.HandleFunc(TypeAlertMatch, processor.HandleAlertMatchTask)

	return srv, mux
}

// SetupScheduler configures the periodic task schedule. Currently only the
// listing expiry sweep. The caller runs and shuts it down.
func SetupScheduler(rdb *redis.Client) *asynq.Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     rdb.Options().Addr,
			Password: rdb.Options().Password,
			DB:       rdb.Options().DB,
		},
		&asynq.SchedulerOpts{},
	)

	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypeListingExpire, nil)); err != nil {
		log.Fatalf("Could not register listing expiry schedule: %v", err)
	}

	return scheduler
}

// --- Task Handlers ---

// HandleImageProcessTask normalizes an uploaded listing image: it enforces
// the dimension cap, re-encodes oversized uploads as JPEG and attaches the
// final key to the listing.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, PropertyID=%s", payload.S3Key, payload.PropertyID)

	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer getObjectOutput.Body.Close()

	imgData, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return fmt.Errorf("failed to read image data for key %s: %w", payload.S3Key, err)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image for key %s: %v", payload.S3Key, err)
		if delErr := p.storageService.DeleteObject(ctx, payload.S3Key); delErr != nil {
			log.Printf("Error deleting undecodable image %s: %v", payload.S3Key, delErr)
		}
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxDim := uint(p.cfg.ImageMaxDimension)
	needsResize := uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim

	if needsResize {
		resizedImg := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err = jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image %s: %w", payload.S3Key, err)
		}
		log.Printf("Resized image %s to %dx%d", payload.S3Key, resizedImg.Bounds().Dx(), resizedImg.Bounds().Dy())

		_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.cfg.AwsS3Bucket),
			Key:         aws.String(payload.S3Key),
			Body:        bytes.NewReader(buf.Bytes()),
			ContentType: aws.String("image/jpeg"),
		})
		if err != nil {
			return fmt.Errorf("failed to upload processed image %s: %w", payload.S3Key, err)
		}
	}

	if err = p.propertyService.AddImageToProperty(ctx, payload.PropertyID, payload.S3Key); err != nil {
		log.Printf("Error adding image key %s to property %s: %v", payload.S3Key, payload.PropertyID, err)
		return fmt.Errorf("failed to attach processed image to listing: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, PropertyID=%s", payload.S3Key, payload.PropertyID)
	return nil
}

// HandleListingExpireTask deactivates every listing past its activeUntil.
func (p *TaskProcessor) HandleListingExpireTask(ctx context.Context, t *asynq.Task) error {
	n, err := p.propertyService.DeactivateExpired(ctx, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("listing expiry sweep failed: %w", err)
	}
	if n > 0 {
		log.Printf("Listing expiry sweep deactivated %d listings.", n)
	}
	return nil
}

// HandleAlertMatchTask matches one new listing against all saved searches
// and notifies their owners over Telegram.
func (p *TaskProcessor) HandleAlertMatchTask(ctx context.Context, t *asynq.Task) error {
	var payload AlertMatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal alert match payload: %v: %w", err, asynq.SkipRetry)
	}

	property, err := p.propertyService.FindPropertyByID(ctx, payload.PropertyID)
	if err != nil {
		// Listing deleted before the task ran, nothing to announce
		log.Printf("Property %s not found for alert matching: %v", payload.PropertyID, err)
		return nil
	}

	matched, err := p.alertService.MatchAlertsForProperty(ctx, p.propertyService, property)
	if err != nil {
		return fmt.Errorf("failed to match alerts for property %s: %w", property.ID, err)
	}

	for _, alert := range matched {
		text := fmt.Sprintf("🏠 New listing matching your search \"%s\":\n%s in %s", alert.Name, property.Title, property.Locality)
		if err := p.notifier.SendMessage(ctx, alert.UserID, text); err != nil {
			log.Printf("Error notifying user %d for alert %s: %v", alert.UserID, alert.ID, err)
			continue
		}
		if err := p.alertService.AdvanceAlertIndex(ctx, alert.ID, property.Index); err != nil {
			log.Printf("Error advancing index of alert %s: %v", alert.ID, err)
		}
	}

	log.Printf("Alert matching finished for property %s: %d alerts notified.", property.ID, len(matched))
	return nil
}
