package integration

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"CAMERA_CAPTURE/go-backend/pkg/pb"
)

// Тесты ниже ходят в живой Python-детектор на localhost:50051
// и пропускаются, если он не запущен

func dialDetector(t *testing.T) pb.FaceDetectionClient {
	t.Helper()
	conn, err := grpc.Dial("localhost:50051", grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("did not connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	client := pb.NewFaceDetectionClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Health(ctx, &pb.Empty{}); err != nil {
		t.Skipf("detector service not reachable at localhost:50051: %v", err)
	}
	return client
}

func TestGRPCDetectFaces(t *testing.T) {
	client := dialDetector(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := &pb.ImageFrame{
		ImageData: []byte("test frame data"),
		SessionId: "integration-test",
		Timestamp: time.Now().UnixMilli(),
	}

	// Кадр заведомо не картинка: детектор должен ответить ошибкой декода
	// или пустым результатом, но не упасть
	result, err := client.DetectFaces(ctx, req)
	if err != nil {
		t.Logf("DetectFaces rejected bogus frame: %v", err)
		return
	}
	if result == nil {
		t.Fatal("Result is nil")
	}
	t.Logf("Success! detected=%v, faces=%d, confidence=%.2f",
		result.Detected, result.FaceCount, result.Confidence)
}

func TestGRPCHealth(t *testing.T) {
	client := dialDetector(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status, err := client.Health(ctx, &pb.Empty{})
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}

	if status.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", status.Status)
	}
	t.Logf("Health: %+v", status)
}
