package api

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/example/task-manager-demo/domain/user"
	"github.com/example/task-manager-demo/modules/auth"
	"github.com/example/task-manager-demo/modules/tasks"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	authContainer mono.ServiceContainer
	authAdapter   auth.AuthPort
	taskAdapter   tasks.TaskPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authContainer mono.ServiceContainer, authAdapter auth.AuthPort, taskAdapter tasks.TaskPort) *Handlers {
	return &Handlers{
		authContainer: authContainer,
		authAdapter:   authAdapter,
		taskAdapter:   taskAdapter,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return badRequest(c, "Username, email and password are required")
	}

	// Roles are never taken from the wire. Admin accounts are created
	// through the auth service's register operation directly, not over HTTP.
	authReq := auth.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     user.RoleUser,
	}
	var resp auth.UserInfo

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"register",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(userResponse(resp))
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	authReq := auth.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	}
	var resp auth.LoginResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"login",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	})
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	authReq := auth.RefreshRequest{
		RefreshToken: req.RefreshToken,
	}
	var resp auth.RefreshResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"refresh-token",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
		})
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken: resp.AccessToken,
		ExpiresIn:   resp.ExpiresIn,
		TokenType:   resp.TokenType,
	})
}

// ListUsers handles admin user listing. AdminMiddleware has already
// enforced the role.
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	users, err := h.authAdapter.ListUsers(c.UserContext())
	if err != nil {
		return mapServiceError(c, err)
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserResponse{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
		})
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// CreateTask handles task creation for the authenticated owner.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	u, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	t, err := h.taskAdapter.Create(c.UserContext(), &tasks.CreateTaskRequest{
		OwnerID:   u.ID,
		Title:     req.Title,
		Completed: req.Completed,
		Priority:  req.Priority,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(taskResponse(t))
}

// ListTasks handles filtered, sorted, paginated task listing.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	u, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	req := tasks.ListTasksRequest{
		OwnerID: u.ID,
		Title:   c.Query("title"),
		SortBy:  c.Query("sort_by", "id"),
		Order:   c.Query("order", "asc"),
		Skip:    0,
		Limit:   tasks.DefaultPageLimit,
	}

	if v := c.Query("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "skip must be an integer")
		}
		req.Skip = skip
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "limit must be an integer")
		}
		req.Limit = limit
	}
	if v := c.Query("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "completed must be true or false")
		}
		req.Completed = &completed
	}
	if v := c.Query("priority"); v != "" {
		priority, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "priority must be an integer")
		}
		req.Priority = &priority
	}

	resp, err := h.taskAdapter.List(c.UserContext(), &req)
	if err != nil {
		return mapServiceError(c, err)
	}

	out := TaskListResponse{
		Total: resp.Total,
		Skip:  resp.Skip,
		Limit: resp.Limit,
		Data:  make([]TaskResponse, 0, len(resp.Data)),
	}
	for i := range resp.Data {
		out.Data = append(out.Data, taskResponse(&resp.Data[i]))
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// GetTask handles fetching a single task by id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	u, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	taskID, err := taskIDParam(c)
	if err != nil {
		return badRequest(c, "task id must be an integer")
	}

	t, err := h.taskAdapter.Get(c.UserContext(), u.ID, taskID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(taskResponse(t))
}

// UpdateTask handles full-replacement task updates.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	u, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	taskID, err := taskIDParam(c)
	if err != nil {
		return badRequest(c, "task id must be an integer")
	}

	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	t, err := h.taskAdapter.Update(c.UserContext(), &tasks.UpdateTaskRequest{
		OwnerID:   u.ID,
		TaskID:    taskID,
		Title:     req.Title,
		Completed: req.Completed,
		Priority:  req.Priority,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(taskResponse(t))
}

// DeleteTask handles task deletion.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	u, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	taskID, err := taskIDParam(c)
	if err != nil {
		return badRequest(c, "task id must be an integer")
	}

	if err := h.taskAdapter.Delete(c.UserContext(), u.ID, taskID); err != nil {
		return mapServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RequestPasswordReset handles password-reset link requests.
func (h *Handlers) RequestPasswordReset(c *fiber.Ctx) error {
	var req ResetRequestBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Email == "" {
		return badRequest(c, "Email is required")
	}

	var resp auth.RequestResetResponse
	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"password-reset-request",
		json.Marshal,
		json.Unmarshal,
		&auth.RequestResetRequest{Email: req.Email},
		&resp,
	); err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{Message: resp.Message})
}

// ConfirmPasswordReset handles password-reset confirmation.
func (h *Handlers) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req ResetConfirmBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Token == "" || req.NewPassword == "" {
		return badRequest(c, "Token and new password are required")
	}

	var resp auth.ConfirmResetResponse
	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"password-reset-confirm",
		json.Marshal,
		json.Unmarshal,
		&auth.ConfirmResetRequest{Token: req.Token, NewPassword: req.NewPassword},
		&resp,
	); err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{Message: resp.Message})
}

// mapServiceError maps errors crossing the service container (available
// only as strings) to HTTP responses, without exposing internals.
func mapServiceError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "task not found"):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	case strings.Contains(errStr, "invalid username/email or password"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid username/email or password",
		})
	case strings.Contains(errStr, "invalid or expired reset token"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired reset token",
		})
	case strings.Contains(errStr, "user with this email already exists"):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "User with this email already exists",
		})
	case strings.Contains(errStr, "invalid email format"),
		strings.Contains(errStr, "username is required"),
		strings.Contains(errStr, "password is required"),
		strings.Contains(errStr, "password must be"),
		strings.Contains(errStr, "unknown role"),
		strings.Contains(errStr, "title must be"),
		strings.Contains(errStr, "unknown sort field"),
		strings.Contains(errStr, "order must be"),
		strings.Contains(errStr, "skip must be"),
		strings.Contains(errStr, "limit must be"):
		return badRequest(c, userFacingMessage(errStr))
	default:
		// Log the actual error but don't expose it to the client
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

// userFacingMessage strips the transport wrapping from a validation
// error, keeping only the sentence after the last colon.
func userFacingMessage(errStr string) string {
	if i := strings.LastIndex(errStr, ": "); i >= 0 {
		return errStr[i+2:]
	}
	return errStr
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: "User not authenticated",
	})
}

func taskIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func taskResponse(t *tasks.TaskData) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		Priority:  t.Priority,
	}
}

func userResponse(info auth.UserInfo) UserResponse {
	return UserResponse{
		ID:        info.ID,
		Username:  info.Username,
		Email:     info.Email,
		Role:      info.Role,
		CreatedAt: info.CreatedAt,
	}
}
