package handler

import (
	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

// flyerField is the multipart field carrying the booth flyer image.
const flyerField = "flyer_image"

// maxFlyerSize bounds a single flyer upload.
const maxFlyerSize = 5 << 20

type signupRequest struct {
	Email           string `json:"email"            form:"email"            validate:"required,email"`
	Password        string `json:"password"         form:"password"         validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required,eqfield=Password"`
	FullName        string `json:"full_name"        form:"full_name"        validate:"required,max=150"`
	Phone           string `json:"phone"            form:"phone"            validate:"required,max=20"`
	PostalCode      string `json:"postal_code"      form:"postal_code"      validate:"required,max=10"`
	Address         string `json:"address"          form:"address"          validate:"required,max=255"`
}

func (r signupRequest) toInput(flyer *ports.FlyerUpload) ports.SignUpInput {
	return ports.SignUpInput{
		Email:           r.Email,
		Password:        r.Password,
		PasswordConfirm: r.PasswordConfirm,
		FullName:        r.FullName,
		Phone:           r.Phone,
		PostalCode:      r.PostalCode,
		Address:         r.Address,
		Flyer:           flyer,
	}
}

type resendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	FullName           string `json:"full_name"           form:"full_name"           validate:"required,max=150"`
	Phone              string `json:"phone"               form:"phone"               validate:"required,max=20"`
	PostalCode         string `json:"postal_code"         form:"postal_code"         validate:"required,max=10"`
	Address            string `json:"address"             form:"address"             validate:"required,max=255"`
	OrganizationName   string `json:"organization_name"   form:"organization_name"   validate:"max=255"`
	RepresentativeName string `json:"representative_name" form:"representative_name" validate:"max=150"`
	BoothName          string `json:"booth_name"          form:"booth_name"          validate:"max=255"`
	BoothSummary       string `json:"booth_summary"       form:"booth_summary"       validate:"max=500"`
	BoothDescription   string `json:"booth_description"   form:"booth_description"`
}

func (r profileRequest) toInput(flyer *ports.FlyerUpload) ports.ProfileInput {
	return ports.ProfileInput{
		Profile: domain.Profile{
			FullName:           r.FullName,
			Phone:              r.Phone,
			PostalCode:         r.PostalCode,
			Address:            r.Address,
			OrganizationName:   r.OrganizationName,
			RepresentativeName: r.RepresentativeName,
			BoothName:          r.BoothName,
			BoothSummary:       r.BoothSummary,
			BoothDescription:   r.BoothDescription,
		},
		Flyer: flyer,
	}
}

type emailChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewEmail        string `json:"new_email"        validate:"required,email"`
}

type passwordChangeRequest struct {
	CurrentPassword    string `json:"current_password"     validate:"required"`
	NewPassword        string `json:"new_password"         validate:"required,min=8,max=72"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordResetConfirmRequest struct {
	NewPassword        string `json:"new_password"         validate:"required,min=8,max=72"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

func newPasswordInput(password, confirm string) ports.PasswordChangeInput {
	return ports.PasswordChangeInput{NewPassword: password, NewPasswordConf: confirm}
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type profileResponse struct {
	User     *domain.User `json:"user"`
	FlyerURL string       `json:"flyer_url,omitempty"`
}

func newProfileResponse(v *ports.ProfileView) profileResponse {
	return profileResponse{User: v.User, FlyerURL: v.FlyerURL}
}

// verifyResponse is the only body a token link ever renders.
type verifyResponse struct {
	Success bool `json:"success"`
}

type messageResponse struct {
	Message string `json:"message"`
}
