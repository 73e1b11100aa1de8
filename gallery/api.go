package gallery

import (
	"encoding/json"
	"errors"

	"github.com/Brawl345/epicture/model"
)

var errDataNotList = errors.New("data is not a list of images")

type Response struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Status  int             `json:"status"`
}

func (r *Response) Images() ([]model.ImageItem, error) {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return []model.ImageItem{}, nil
	}

	var images []model.ImageItem
	if err := json.Unmarshal(r.Data, &images); err != nil {
		return nil, errDataNotList
	}
	if images == nil {
		images = []model.ImageItem{}
	}
	return images, nil
}
