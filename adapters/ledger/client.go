package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/phanstudios/what-the-burn/core"
	"github.com/phanstudios/what-the-burn/ports"
)

// DefaultRequestTimeout bounds one ledger round trip.
const DefaultRequestTimeout = 15 * time.Second

// Client talks to the off-chain ledger service over HTTP. Every call has a
// bounded wait; transport failures and timeouts surface as core.ErrNetwork.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a ledger client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultRequestTimeout},
	}
}

var _ ports.LedgerClient = (*Client)(nil)

// SignMessage fetches the one-time challenge message for the address.
func (c *Client) SignMessage(ctx context.Context, address common.Address) (string, error) {
	endpoint := c.baseURL + "/sign-message/?wallet=" + url.QueryEscape(address.Hex())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := c.do(req, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// VerifySignature posts the signed challenge and returns the credential.
func (c *Client) VerifySignature(ctx context.Context, address common.Address, signature string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"wallet_address": address.Hex(),
		"signature":      signature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify-signature/", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var body struct {
		Token string `json:"token"`
	}
	if err := c.do(req, &body); err != nil {
		return "", err
	}
	return body.Token, nil
}

// UserTokens lists the assets owned by the authenticated address.
func (c *Client) UserTokens(ctx context.Context, credential string) ([]core.NFTAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user-tokens/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	var body struct {
		Tokens []core.NFTAsset `json:"tokens"`
	}
	if err := c.do(req, &body); err != nil {
		return nil, err
	}
	return body.Tokens, nil
}

// SubmitUpdateRequest posts the burn record as a multipart payload. The
// server dedups on the transaction hash, so re-submitting after a timeout
// is safe; the caller still surfaces the final outcome instead of looping.
func (c *Client) SubmitUpdateRequest(ctx context.Context, credential string, address common.Address, burnReq *core.BurnRequest, txHash string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"transaction_hash": txHash,
		"address":          address.Hex(),
		"update_id":        strconv.FormatUint(uint64(burnReq.Selection.Featured.ID), 10),
		"update_name":      burnReq.DisplayName,
		"description":      burnReq.Description,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return "", err
		}
	}
	for _, id := range burnReq.Selection.BurnIDs() {
		if err := w.WriteField("burn_ids", strconv.FormatUint(uint64(id), 10)); err != nil {
			return "", err
		}
	}

	part, err := w.CreatePart(attachmentHeader(burnReq.Attachment))
	if err != nil {
		return "", err
	}
	if _, err := part.Write(burnReq.Attachment.Data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update-requests/", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+credential)

	var body struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &body); err != nil {
		return "", err
	}
	return body.ID, nil
}

func attachmentHeader(att core.Attachment) textproto.MIMEHeader {
	h := textproto.MIMEHeader{}
	name := att.Name
	if name == "" {
		name = "attachment"
	}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	h.Set("Content-Type", att.ContentType)
	return h
}

// do executes the request and maps response statuses onto the failure
// taxonomy: 401/403 to ErrUnauthorized, 4xx to ErrValidationRejected,
// everything transport-level to ErrNetwork.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", core.ErrUnauthorized, readError(resp.Body))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s", core.ErrValidationRejected, readError(resp.Body))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: ledger returned %d", core.ErrNetwork, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", core.ErrNetwork, err)
	}
	return nil
}

func readError(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return "request rejected"
}
