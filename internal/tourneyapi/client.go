package tourneyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vgurov/americano/internal/tourney"
	"github.com/vgurov/americano/internal/util/httputil"
)

type ClientOptions struct {
	Endpoint string
	Token    string
}

type Client struct {
	o      ClientOptions
	client *http.Client
}

func NewClient(o ClientOptions, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	o.Endpoint = strings.TrimSuffix(o.Endpoint, "/")
	return &Client{o: o, client: httpClient}
}

func (c *Client) setUpRequest(req *http.Request) {
	if c.o.Token != "" {
		req.Header.Add("X-Token", c.o.Token)
	}
	req.Header.Add("Content-Type", "application/json")
}

func (c *Client) decodeError(rsp *http.Response) error {
	if 200 <= rsp.StatusCode && rsp.StatusCode <= 299 {
		return nil
	}
	var b bytes.Buffer
	_, err := io.Copy(&b, rsp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if rsp.Header.Get("Content-Type") == "application/json" {
		var apiErr *tourney.Error
		if err := json.Unmarshal(b.Bytes(), &apiErr); err != nil {
			return fmt.Errorf("unmarshal json: %w", err)
		}
		if apiErr.Code == "" {
			return fmt.Errorf("bad error json")
		}
		return apiErr
	}
	return httputil.MakeError(rsp.StatusCode, b.String())
}

func doClientRequest[Req any, Rsp any](ctx context.Context, c *Client, path string, req *Req) (*Rsp, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	hReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.o.Endpoint+path, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setUpRequest(hReq)
	hRsp, err := c.client.Do(hReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, hRsp.Body)
		_ = hRsp.Body.Close()
	}()
	if err := c.decodeError(hRsp); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	rspBytes, err := io.ReadAll(hRsp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var rsp *Rsp
	if err := json.Unmarshal(rspBytes, &rsp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return rsp, nil
}

func (c *Client) CreateTournament(ctx context.Context, req *CreateTournamentRequest) (*CreateTournamentResponse, error) {
	return doClientRequest[CreateTournamentRequest, CreateTournamentResponse](ctx, c, "/admin/tournament/create", req)
}

func (c *Client) ListTournaments(ctx context.Context, req *ListTournamentsRequest) (*ListTournamentsResponse, error) {
	return doClientRequest[ListTournamentsRequest, ListTournamentsResponse](ctx, c, "/admin/tournament/list", req)
}

func (c *Client) SetMode(ctx context.Context, req *SetModeRequest) (*SetModeResponse, error) {
	return doClientRequest[SetModeRequest, SetModeResponse](ctx, c, "/admin/tournament/mode", req)
}

func (c *Client) ListRegistrations(ctx context.Context, req *ListRegistrationsRequest) (*ListRegistrationsResponse, error) {
	return doClientRequest[ListRegistrationsRequest, ListRegistrationsResponse](ctx, c, "/admin/registration/list", req)
}

// CreateRegistration submits a registration through the token-authenticated
// route, bypassing the public rate limit.
func (c *Client) CreateRegistration(ctx context.Context, req *ApplyRequest) (*ApplyResponse, error) {
	return doClientRequest[ApplyRequest, ApplyResponse](ctx, c, "/admin/registration/create", req)
}

func (c *Client) DecideRegistration(ctx context.Context, req *DecideRegistrationRequest) (*DecideRegistrationResponse, error) {
	return doClientRequest[DecideRegistrationRequest, DecideRegistrationResponse](ctx, c, "/admin/registration/decide", req)
}

func (c *Client) SetPaid(ctx context.Context, req *SetPaidRequest) (*SetPaidResponse, error) {
	return doClientRequest[SetPaidRequest, SetPaidResponse](ctx, c, "/admin/registration/pay", req)
}

func (c *Client) ListPlayers(ctx context.Context, req *ListPlayersRequest) (*ListPlayersResponse, error) {
	return doClientRequest[ListPlayersRequest, ListPlayersResponse](ctx, c, "/admin/player/list", req)
}

func (c *Client) SetStrength(ctx context.Context, req *SetStrengthRequest) (*SetStrengthResponse, error) {
	return doClientRequest[SetStrengthRequest, SetStrengthResponse](ctx, c, "/admin/player/strength", req)
}

func (c *Client) SetSeed(ctx context.Context, req *SetSeedRequest) (*SetSeedResponse, error) {
	return doClientRequest[SetSeedRequest, SetSeedResponse](ctx, c, "/admin/player/seed", req)
}

func (c *Client) FormTeams(ctx context.Context, req *FormTeamsRequest) (*FormTeamsResponse, error) {
	return doClientRequest[FormTeamsRequest, FormTeamsResponse](ctx, c, "/admin/teams/form", req)
}

func (c *Client) ResetTeams(ctx context.Context, req *ResetTeamsRequest) (*ResetTeamsResponse, error) {
	return doClientRequest[ResetTeamsRequest, ResetTeamsResponse](ctx, c, "/admin/teams/reset", req)
}

func (c *Client) StartStage(ctx context.Context, req *StartStageRequest) (*StartStageResponse, error) {
	return doClientRequest[StartStageRequest, StartStageResponse](ctx, c, "/admin/stage/start", req)
}

func (c *Client) RecordResult(ctx context.Context, req *RecordResultRequest) (*RecordResultResponse, error) {
	return doClientRequest[RecordResultRequest, RecordResultResponse](ctx, c, "/admin/game/result", req)
}

func (c *Client) GetOverrides(ctx context.Context, req *GetOverridesRequest) (*GetOverridesResponse, error) {
	return doClientRequest[GetOverridesRequest, GetOverridesResponse](ctx, c, "/admin/overrides/get", req)
}

func (c *Client) SaveOverrides(ctx context.Context, req *SaveOverridesRequest) (*SaveOverridesResponse, error) {
	return doClientRequest[SaveOverridesRequest, SaveOverridesResponse](ctx, c, "/admin/overrides/save", req)
}

func (c *Client) Finish(ctx context.Context, req *FinishRequest) (*FinishResponse, error) {
	return doClientRequest[FinishRequest, FinishResponse](ctx, c, "/admin/finish", req)
}

func (c *Client) Cancel(ctx context.Context, req *CancelRequest) (*CancelResponse, error) {
	return doClientRequest[CancelRequest, CancelResponse](ctx, c, "/admin/cancel", req)
}

func (c *Client) State(ctx context.Context, req *StateRequest) (*StateResponse, error) {
	return doClientRequest[StateRequest, StateResponse](ctx, c, "/pub/state", req)
}

func (c *Client) Apply(ctx context.Context, req *ApplyRequest) (*ApplyResponse, error) {
	return doClientRequest[ApplyRequest, ApplyResponse](ctx, c, "/pub/apply", req)
}

func (c *Client) Withdraw(ctx context.Context, req *WithdrawRequest) (*WithdrawResponse, error) {
	return doClientRequest[WithdrawRequest, WithdrawResponse](ctx, c, "/pub/withdraw", req)
}
