package handler

import "strconv"

func parseID(s string) (int, error) {
	return strconv.Atoi(s)
}
