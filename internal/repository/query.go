package repository

import "strings"

func sanitizeSort(requested string, allowed map[string]bool, fallback string) string {
	if requested == "" || !allowed[requested] {
		return fallback
	}
	return requested
}

func sanitizeOrder(requested string) string {
	order := strings.ToUpper(requested)
	if order != "ASC" && order != "DESC" {
		return "ASC"
	}
	return order
}

func pageWindow(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
