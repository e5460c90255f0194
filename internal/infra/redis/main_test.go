//go:build integration

package redis

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

var testClient *goredis.Client

func TestMain(m *testing.M) {
	ctx := context.Background()
	port := "6379"

	cmd := exec.Command("docker", "run", "-d", "--rm",
		"--network", "host",
		"redis:7",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		log.Fatalf("could not start redis container: %v. Is Docker running?", err)
	}
	containerID := strings.TrimSpace(out.String())[:12]

	testClient = goredis.NewClient(&goredis.Options{Addr: fmt.Sprintf("localhost:%s", port)})
	var err error
	const maxRetries = 15
	for i := 0; i < maxRetries; i++ {
		if err = testClient.Ping(ctx).Err(); err == nil {
			break
		}
		log.Printf("Waiting for redis to be ready... (attempt %d/%d)", i+1, maxRetries)
		time.Sleep(time.Second)
	}
	if err != nil {
		exec.Command("docker", "stop", containerID).Run()
		log.Fatalf("Unable to connect to test redis after multiple retries: %v\n", err)
	}
	log.Println("Test redis is ready.")

	exitCode := m.Run()

	testClient.Close()
	log.Println("Stopping test container...")
	if err := exec.Command("docker", "stop", containerID).Run(); err != nil {
		log.Printf("could not stop redis container %s: %v", containerID, err)
	}

	os.Exit(exitCode)
}

func cleanup(t *testing.T) {
	t.Helper()
	if err := testClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("could not flush test db: %v", err)
	}
}
