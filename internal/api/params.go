package api

import (
	"fmt"
	"strconv"
	"time"

	"eat2fit/fitness/internal/domain"
	"eat2fit/fitness/internal/repository"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pageFromQuery reads ?page=&size=, absent values fall back to the defaults.
func pageFromQuery(c *gin.Context) (repository.Page, error) {
	page := repository.Page{Number: 1, Size: repository.DefaultPageSize}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return page, fmt.Errorf("page must be a positive integer")
		}
		page.Number = n
	}
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > repository.MaxPageSize {
			return page, fmt.Errorf("size must be between 1 and %d", repository.MaxPageSize)
		}
		page.Size = n
	}
	return page, nil
}

func optionalDate(c *gin.Context, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date in %s format", name, domain.DateLayout)
	}
	return &d, nil
}

func optionalObjectID(v string) (*primitive.ObjectID, error) {
	if v == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
