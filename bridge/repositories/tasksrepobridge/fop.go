package tasksrepobridge

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo"
	"github.com/jrazmi/taskdeck/core/scaffolding/fop"
)

// QueryParams are the list query string values.
type QueryParams struct {
	Limit      string
	Cursor     string
	Order      string
	Completed  string
	Priority   string
	Tag        string
	SearchTerm string
}

func parseQueryParams(r *http.Request) QueryParams {
	q := r.URL.Query()
	return QueryParams{
		Limit:      q.Get("limit"),
		Cursor:     q.Get("cursor"),
		Order:      q.Get("order"),
		Completed:  q.Get("completed"),
		Priority:   q.Get("priority"),
		Tag:        q.Get("tag"),
		SearchTerm: q.Get("searchTerm"),
	}
}

func parseFilter(userID string, qp QueryParams) (tasksrepo.QueryFilter, error) {
	filter := tasksrepo.QueryFilter{UserID: userID}

	if qp.Completed != "" {
		val, err := strconv.ParseBool(qp.Completed)
		if err != nil {
			return filter, fmt.Errorf("invalid completed: %s", qp.Completed)
		}
		filter.Completed = &val
	}
	if qp.Priority != "" {
		if !tasksrepo.ValidPriority(qp.Priority) {
			return filter, fmt.Errorf("invalid priority: %s", qp.Priority)
		}
		filter.Priority = &qp.Priority
	}
	if qp.Tag != "" {
		filter.Tag = &qp.Tag
	}
	if qp.SearchTerm != "" {
		filter.SearchTerm = &qp.SearchTerm
	}

	return filter, nil
}

func parseOrderBy(order string) (fop.By, error) {
	if order == "" {
		return tasksrepo.DefaultOrderBy, nil
	}
	return fop.ParseOrder(tasksrepo.OrderByFields, order, tasksrepo.DefaultOrderBy)
}
