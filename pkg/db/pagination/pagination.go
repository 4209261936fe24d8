package pagination

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 250
)

type Pagination struct {
	Page     int `form:"page,default=1" json:"page" binding:"gte=1"`
	PageSize int `form:"page_size,default=10" json:"page_size" binding:"gte=1,lte=250"` // Min 1, Max 250
}

// Normalize clamps zero or out of range values back to the defaults.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

func (p Pagination) Limit() int {
	return p.Normalize().PageSize
}
