package domain

import (
	"errors"
	"strings"
)

type Customer struct {
	Entity
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	ShippingAddress string `json:"shippingAddress"`
}

func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return errors.New("username is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.Name + " " + c.Surname)
}

// PlaceholderCustomer is the minimal record created at checkout or login
// when a signed-in user has no customer profile yet.
func PlaceholderCustomer(username string) *Customer {
	return &Customer{
		Name:            "Customer",
		Surname:         "User",
		Username:        username,
		Email:           username + "@abcretailers.com",
		ShippingAddress: "Address not provided",
	}
}
