package transport

import (
	"net/http"

	"github.com/ds124wfegd/ticket-marketplace/internal/service"
	"github.com/ds124wfegd/ticket-marketplace/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService   service.UserService
	vendorService service.VendorService
}

func NewUserHandler(userService service.UserService, vendorService service.VendorService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		vendorService: vendorService,
	}
}

// UpsertUser registers the user on sign-in; repeated calls keep the role.
func (h *UserHandler) UpsertUser(c *gin.Context) {
	var req service.UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.userService.UpsertUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "User saved successfully", user)
}

func (h *UserHandler) GetRole(c *gin.Context) {
	email := c.Param("email")

	role, err := h.userService.GetRole(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Role retrieved successfully", gin.H{
		"email": email,
		"role":  role,
	})
}

func (h *UserHandler) ApplyVendor(c *gin.Context) {
	var req service.VendorApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	vendor, err := h.vendorService.Apply(c.Request.Context(), middleware.DecodedEmail(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Vendor application submitted", vendor)
}
