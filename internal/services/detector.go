package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"

	"CAMERA_CAPTURE/go-backend/internal/models"
	pb "CAMERA_CAPTURE/go-backend/pkg/pb"
)

// FaceDetector is the capture workflow's view of the detection sidecar.
// Implementations must be safe for concurrent use across sessions.
type FaceDetector interface {
	Detect(ctx context.Context, image []byte) (*models.DetectionResult, error)
}

type GRPCDetector struct {
	conn   *grpc.ClientConn
	client pb.FaceDetectionClient
	url    string
}

func NewGRPCDetector(url string) (*GRPCDetector, error) {
	log.Printf("Connecting to detector gRPC at %s", url)

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(50*1024*1024),
			grpc.MaxCallSendMsgSize(50*1024*1024),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             3 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	conn, err := grpc.Dial(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not connect to detector gRPC server at %s: %w", url, err)
	}

	client := pb.NewFaceDetectionClient(conn)
	log.Printf("Connected to detector gRPC server at %s", url)

	return &GRPCDetector{
		conn:   conn,
		client: client,
		url:    url,
	}, nil
}

func (d *GRPCDetector) Detect(ctx context.Context, image []byte) (*models.DetectionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	reply, err := d.client.DetectFaces(ctx, &pb.ImageFrame{
		ImageData: image,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		if status.Code(err) == codes.InvalidArgument {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDetection, err)
	}

	result := &models.DetectionResult{
		Detected:        reply.GetDetected(),
		FaceCount:       int(reply.GetFaceCount()),
		Confidence:      float64(reply.GetConfidence()),
		InferenceTimeMs: reply.GetInferenceTimeMs(),
		Timestamp:       time.Now().UnixMilli(),
	}
	for _, box := range reply.GetFaces() {
		result.Faces = append(result.Faces, models.BoundingBox{
			X:          int(box.GetX()),
			Y:          int(box.GetY()),
			Width:      int(box.GetWidth()),
			Height:     int(box.GetHeight()),
			Confidence: box.GetConfidence(),
		})
	}
	return result, nil
}

func (d *GRPCDetector) HealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := d.client.Health(ctx, &pb.Empty{})
	return err == nil
}

func (d *GRPCDetector) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// StubDetector отвечает фиксированным результатом, когда Python недоступен
// (для локальной разработки без ML-сервиса)
type StubDetector struct{}

func (StubDetector) Detect(_ context.Context, image []byte) (*models.DetectionResult, error) {
	if len(image) == 0 {
		return nil, ErrDecode
	}
	return &models.DetectionResult{
		Detected:   true,
		FaceCount:  1,
		Confidence: 0.9,
		Faces: []models.BoundingBox{
			{X: 180, Y: 120, Width: 280, Height: 280, Confidence: 0.9},
		},
		Timestamp: time.Now().UnixMilli(),
	}, nil
}
