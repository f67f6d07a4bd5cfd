package pagination

// Pagination carries cursor paging query parameters for list endpoints.
type Pagination struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit,default=25" validate:"gte=1,lte=100"` // Min 1, Max 100
}

// Clamp normalises the limit into the supported window.
func (p *Pagination) Clamp() {
	if p.Limit <= 0 {
		p.Limit = 25
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}
