//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type loginResponse struct {
	Token string `json:"token"`
}

// doLogin logs the trainee in and returns the session token that goes
// into the X-TRAINTRACK-TOKEN header of protected requests.
func (s *IntegrationTestSuite) doLogin(ctx context.Context) string {
	loginReqJson, err := json.Marshal(map[string]string{
		"username": testUsername,
		"password": testPassword,
	})
	s.Require().NoError(err)

	req, err := http.NewRequestWithContext(
		ctx, "POST",
		fmt.Sprintf("%s/a/login", serverEndpoint),
		bytes.NewBuffer(loginReqJson),
	)
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	var loginResp loginResponse
	s.Require().NoError(json.Unmarshal(respBytes, &loginResp))
	s.Require().NotEmpty(loginResp.Token)

	return loginResp.Token
}
