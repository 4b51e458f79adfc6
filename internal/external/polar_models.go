package external

// Wire models for the Polar API. Fields the provider may omit are pointers
// and read through accessor methods.

type checkoutCreate struct {
	Products   []string `json:"products"`
	SuccessURL string   `json:"success_url"`
}

type customerSessionCreate struct {
	CustomerID string `json:"customer_id"`
}

// ProductList is the response of GET /v1/products/.
type ProductList struct {
	Items []Product `json:"items"`
}

// Product is one catalogue entry.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsRecurring *bool   `json:"is_recurring,omitempty"`
	IsArchived  *bool   `json:"is_archived,omitempty"`
}

// Usable reports whether the product can be offered for checkout.
func (p Product) Usable() bool {
	return p.ID != ""
}

// Checkout is the response of POST /v1/checkouts/.
type Checkout struct {
	ID  string  `json:"id"`
	URL *string `json:"url,omitempty"`
}

// RedirectURL returns the hosted checkout page, if the provider sent one.
func (c *Checkout) RedirectURL() (string, bool) {
	if c == nil || c.URL == nil || *c.URL == "" {
		return "", false
	}
	return *c.URL, true
}

// CustomerList is the response of GET /v1/customers/.
type CustomerList struct {
	Items []Customer `json:"items"`
}

// Customer is a provider customer record.
type Customer struct {
	ID    string  `json:"id"`
	Email *string `json:"email,omitempty"`
}

// First returns the first entry as ordered by the provider, or false if it
// has no ID. Later entries are ignored.
func (l *CustomerList) First() (Customer, bool) {
	if l == nil || len(l.Items) == 0 || l.Items[0].ID == "" {
		return Customer{}, false
	}
	return l.Items[0], true
}

// CustomerSession is the response of POST /v1/customer-sessions/.
type CustomerSession struct {
	Token             *string `json:"token,omitempty"`
	CustomerPortalURL *string `json:"customer_portal_url,omitempty"`
}

// PortalURL returns the self-service portal page, if the provider sent one.
func (s *CustomerSession) PortalURL() (string, bool) {
	if s == nil || s.CustomerPortalURL == nil || *s.CustomerPortalURL == "" {
		return "", false
	}
	return *s.CustomerPortalURL, true
}
