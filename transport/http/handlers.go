package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/phanstudios/what-the-burn/core"
	"github.com/phanstudios/what-the-burn/ports"
	"github.com/phanstudios/what-the-burn/service"
)

// LedgerHandlers contains the HTTP handlers of the ledger service.
type LedgerHandlers struct {
	auth  *service.LedgerAuth
	store ports.LedgerStore
	log   zerolog.Logger
}

// NewLedgerHandlers creates the handler set.
func NewLedgerHandlers(auth *service.LedgerAuth, store ports.LedgerStore, log zerolog.Logger) *LedgerHandlers {
	return &LedgerHandlers{
		auth:  auth,
		store: store,
		log:   log.With().Str("component", "http").Logger(),
	}
}

// SignMessage issues the one-time challenge for a wallet.
func (h *LedgerHandlers) SignMessage(c *gin.Context) {
	wallet := c.Query("wallet")
	if !common.IsHexAddress(wallet) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		return
	}

	message, err := h.auth.ChallengeMessage(c.Request.Context(), wallet)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create challenge")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// VerifySignature trades a signed challenge for a session credential.
func (h *LedgerHandlers) VerifySignature(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	credential, err := h.auth.VerifySignature(c.Request.Context(), req.WalletAddress, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNonceNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No challenge issued for this wallet"})
		case errors.Is(err, core.ErrInvalidSignature):
			c.JSON(http.StatusForbidden, gin.H{"error": "Signature mismatch"})
		default:
			h.log.Error().Err(err).Msg("signature verification failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": credential})
}

// UserTokens lists the assets owned by the authenticated wallet.
func (h *LedgerHandlers) UserTokens(c *gin.Context) {
	address := c.GetString(ContextAddressKey)

	tokens, err := h.store.TokensByOwner(c.Request.Context(), address)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tokens"})
		return
	}
	if tokens == nil {
		tokens = []core.NFTAsset{}
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// CreateUpdateRequest records a confirmed burn. The transaction hash is the
// natural dedup key: posting the same hash twice returns the stored record
// instead of an error, so clients can retry safely.
func (h *LedgerHandlers) CreateUpdateRequest(c *gin.Context) {
	address := c.GetString(ContextAddressKey)

	rec, errMsg := h.parseUpdateRequest(c, address)
	if errMsg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMsg})
		return
	}

	created, err := h.store.SaveUpdateRequest(c.Request.Context(), rec)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to save update request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save record"})
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"id": rec.TransactionHash})
}

// ListUpdateRequests returns all stored burn records for operators.
func (h *LedgerHandlers) ListUpdateRequests(c *gin.Context) {
	records, err := h.store.UpdateRequests(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list update requests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list records"})
		return
	}

	out := make([]gin.H, 0, len(records))
	for _, rec := range records {
		out = append(out, gin.H{
			"transaction_hash": rec.TransactionHash,
			"address":          rec.Address,
			"update_id":        rec.UpdateID,
			"burn_ids":         rec.BurnIDs,
			"update_name":      rec.UpdateName,
			"description":      rec.Description,
			"image_name":       rec.ImageName,
			"updated":          rec.Updated,
		})
	}
	c.JSON(http.StatusOK, gin.H{"update_requests": out})
}

// parseUpdateRequest validates the multipart payload and returns the record
// to store, or a reason for rejecting it.
func (h *LedgerHandlers) parseUpdateRequest(c *gin.Context, address string) (*ports.UpdateRecord, string) {
	txHash := c.PostForm("transaction_hash")
	if txHash == "" {
		return nil, "transaction_hash is required"
	}
	if claimed := c.PostForm("address"); claimed != "" && common.HexToAddress(claimed) != common.HexToAddress(address) {
		return nil, "address does not match the credential"
	}

	updateName := c.PostForm("update_name")
	if updateName == "" || len(updateName) > core.MaxDisplayNameLen {
		return nil, "update_name is required and bounded to 100 characters"
	}
	description := c.PostForm("description")
	if len(description) > core.MaxDescriptionLen {
		return nil, "description exceeds 500 characters"
	}

	updateID, err := strconv.ParseUint(c.PostForm("update_id"), 10, 32)
	if err != nil {
		return nil, "update_id must be a token id"
	}

	rawIDs := c.PostFormArray("burn_ids")
	if len(rawIDs) == 0 {
		return nil, "burn_ids are required"
	}
	burnIDs := make([]uint32, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, "burn_ids must be token ids"
		}
		burnIDs = append(burnIDs, uint32(id))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return nil, "an image attachment is required"
	}
	if file.Size > core.MaxAttachmentSize {
		return nil, "image exceeds the size limit"
	}
	contentType := file.Header.Get("Content-Type")
	if !core.AllowedAttachmentTypes[contentType] {
		return nil, "image must be png, jpeg, gif or webp"
	}

	f, err := file.Open()
	if err != nil {
		return nil, "image could not be read"
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, core.MaxAttachmentSize+1))
	if err != nil || len(data) > core.MaxAttachmentSize {
		return nil, "image could not be read"
	}

	return &ports.UpdateRecord{
		TransactionHash: txHash,
		Address:         address,
		UpdateID:        uint32(updateID),
		BurnIDs:         burnIDs,
		UpdateName:      updateName,
		Description:     description,
		ImageName:       file.Filename,
		Image:           data,
	}, ""
}
