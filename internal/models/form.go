package models

// ContactForm — заявка с публичной контактной формы сайта.
// Все поля обязательны; заявка пересылается на операционную почту.
type ContactForm struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	City     string `json:"city" validate:"required"`
}
