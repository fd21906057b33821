package handlers

import (
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-service/internal/api/dto"
	"github.com/spec-kit/employee-service/internal/service"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// imageFormField is the multipart field carrying the optional employee image.
const imageFormField = "image"

// EmployeesHandler exposes employee CRUD endpoints.
type EmployeesHandler struct {
	employees *service.EmployeeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employeeService *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{employees: employeeService}
}

// List handles GET /employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	result, err := h.employees.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("employees fetched successfully", result))
}

// Get handles GET /employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	employee, err := h.employees.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("employee retrieved successfully", employee))
}

// Create handles POST /employees (multipart form, optional "image" field).
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.EmployeeCreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Address:   req.Address,
		Gender:    req.Gender,
		Mobile:    req.Mobile,
	}

	if fileHeader, err := c.FormFile(imageFormField); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			return apperrors.NewValidationError("unable to read uploaded image", nil)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return apperrors.NewValidationError("unable to read uploaded image", nil)
		}
		input.ImageData = data
		input.ImageContentType = fileHeader.Header.Get("Content-Type")
	}

	employee, err := h.employees.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.OK("employee created successfully", employee))
}

// Update handles PATCH /employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	employee, err := h.employees.Update(c.UserContext(), c.Params("id"), req.ToDomain())
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("employee updated successfully", employee))
}

// Delete handles DELETE /employees/:id.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	if err := h.employees.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
