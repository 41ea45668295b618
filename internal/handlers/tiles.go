package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/tiles"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/types"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/utils"
)

// TileHandler proxies basemap tile requests
type TileHandler struct {
	Proxy *tiles.Proxy
}

// OSTile handles GET /api/tiles/os/:z/:x/:y
// @Summary Fetch an Ordnance Survey tile
// @Description Proxy an OS Light raster tile, clamping zoom to the provider maximum
// @Tags Tiles
// @Produce png
// @Param z path int true "Zoom level"
// @Param x path int true "Tile X"
// @Param y path int true "Tile Y"
// @Success 200 {file} binary
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /tiles/os/{z}/{x}/{y} [get]
func (h *TileHandler) OSTile(c *fiber.Ctx) error {
	z, x, y, err := tileCoords(c)
	if err != nil {
		return err
	}
	body, contentType, err := h.Proxy.OSTile(c.UserContext(), z, x, y)
	return tileResponse(c, body, contentType, err, "osTile")
}

// SatelliteTile handles GET /api/tiles/satellite/:z/:x/:y
// @Summary Fetch a satellite tile
// @Description Proxy a Google Map Tiles satellite tile using a cached session token
// @Tags Tiles
// @Produce jpeg
// @Param z path int true "Zoom level"
// @Param x path int true "Tile X"
// @Param y path int true "Tile Y"
// @Success 200 {file} binary
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /tiles/satellite/{z}/{x}/{y} [get]
func (h *TileHandler) SatelliteTile(c *fiber.Ctx) error {
	z, x, y, err := tileCoords(c)
	if err != nil {
		return err
	}
	body, contentType, err := h.Proxy.SatelliteTile(c.UserContext(), z, x, y)
	return tileResponse(c, body, contentType, err, "satelliteTile")
}

func tileCoords(c *fiber.Ctx) (int, int, int, error) {
	z, errZ := strconv.Atoi(c.Params("z"))
	x, errX := strconv.Atoi(c.Params("x"))
	y, errY := strconv.Atoi(c.Params("y"))
	if errZ != nil || errX != nil || errY != nil || z < 0 || x < 0 || y < 0 {
		return 0, 0, 0, &types.CustomError{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid tile coordinates",
			Type:    "tiles.coordinates",
		}
	}
	return z, x, y, nil
}

func tileResponse(c *fiber.Ctx, body []byte, contentType string, err error, errorType string) error {
	if errors.Is(err, tiles.ErrTileNotFound) {
		// Cache the miss so map clients do not hammer the upstream for
		// tiles that do not exist at this zoom.
		c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
		return utils.NotFoundResponse(c, "Tile not found")
	}
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadGateway, errorType)
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Status(fiber.StatusOK).Send(body)
}
