package collector

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

type publishClient struct {
	serverURL  string
	httpClient *http.Client
}

func newPublishClient(serverHost string, serverPort int) (*publishClient, error) {
	serverURLString := fmt.Sprintf("http://%s:%d/rf/capture", serverHost, serverPort)
	if _, err := url.Parse(serverURLString); err != nil {
		return nil, err
	}
	return &publishClient{serverURLString, &http.Client{Timeout: 10 * time.Second}}, nil
}

// publishTaggedCaptureJSON posts the capture and returns the server's
// status code.
func (pc *publishClient) publishTaggedCaptureJSON(taggedCaptureJSON []byte) (int, error) {
	response, err := pc.httpClient.Post(pc.serverURL, "application/json", bytes.NewReader(taggedCaptureJSON))
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()
	if response.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		log.Printf("Server rejected capture with %d: %s", response.StatusCode, bytes.TrimSpace(body))
	} else {
		io.Copy(io.Discard, response.Body)
	}
	log.Printf("Published capture. Response %v received\n", response.StatusCode)
	return response.StatusCode, nil
}
