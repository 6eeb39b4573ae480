package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"p2p-market-sim/internal/api/models"
	"p2p-market-sim/internal/dataset"
)

// ListDatasets handles GET /api/v1/datasets
func ListDatasets(c *gin.Context) {
	datasets := []models.DatasetInfo{}

	paths, err := dataset.List(dataset.DefaultDir())
	if err != nil {
		log.Warn().Err(err).Str("dir", dataset.DefaultDir()).Msg("failed to list dataset directory")
		c.JSON(http.StatusOK, gin.H{"datasets": datasets})
		return
	}

	for _, path := range paths {
		ds, err := dataset.Load(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping dataset file")
			continue
		}
		datasets = append(datasets, models.DatasetInfo{
			Name:        ds.Name,
			File:        path,
			GeneratedAt: ds.GeneratedAt,
			Seed:        ds.Seed,
			StepMinutes: ds.StepMinutes,
			Households:  len(ds.Households),
		})
	}

	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}
