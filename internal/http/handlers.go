package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"comparateur/internal/domain"
	"comparateur/internal/repository"
	"comparateur/internal/service"
)

const userIDKey = "userID"

type Server struct {
	engine *gin.Engine
	svc    *service.Services
}

func NewServer(svc *service.Services) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	s := &Server{engine: r, svc: svc}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.POST("/auth/login", s.login)
	s.engine.POST("/utilisateurs", s.register)

	// чтение публичное, запись только с bearer-токеном
	auth := s.requireAuth

	s.engine.GET("/categorie", s.listCategories)
	s.engine.GET("/categorie/:id", s.getCategory)
	s.engine.POST("/categorie", auth, s.createCategory)
	s.engine.PUT("/categorie/:id", auth, s.updateCategory)
	s.engine.DELETE("/categorie/:id", auth, s.deleteCategory)
	s.engine.POST("/categorie/:id/attribut", auth, s.addAttribute)
	s.engine.PUT("/categorie/:id/attribut/:attrId", auth, s.updateAttribute)
	s.engine.DELETE("/categorie/:id/attribut/:attrId", auth, s.removeAttribute)

	s.engine.GET("/produits", s.listProducts)
	s.engine.GET("/produits/:id", s.getProduct)
	s.engine.POST("/produits", auth, s.createProduct)
	s.engine.PATCH("/produits/:id", auth, s.patchProduct)
	s.engine.DELETE("/produits/:id", auth, s.deleteProduct)

	s.engine.GET("/api/offres", s.listOffers)
	s.engine.GET("/offres", s.listOffers)
	s.engine.POST("/offres", auth, s.createOffer)
	s.engine.PATCH("/offres/:id", auth, s.patchOffer)
	s.engine.DELETE("/offres/:id", auth, s.deleteOffer)

	s.engine.GET("/promotions", s.listPromotions)
	s.engine.POST("/promotions", auth, s.createPromotion)
	s.engine.PATCH("/promotions/:id", auth, s.patchPromotion)
	s.engine.DELETE("/promotions/:id", auth, s.deletePromotion)
}

// requireAuth пропускает запрос только с валидным Authorization: Bearer <jwt>
func (s *Server) requireAuth(c *gin.Context) {
	h := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		fail(c, service.ErrUnauthorized)
		c.Abort()
		return
	}
	id, err := s.svc.Accounts.Verify(token)
	if err != nil {
		fail(c, err)
		c.Abort()
		return
	}
	c.Set(userIDKey, id)
	c.Next()
}

// Auth handlers
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	tok, user, err := s.svc.Accounts.Login(c, req.Email, req.Password)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"message": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok, "user": user})
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	if _, err := s.svc.Accounts.Register(c, req.Name, req.Email, req.Password, req.Role); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Utilisateur créé avec succès"})
}

// Category handlers
func (s *Server) listCategories(c *gin.Context) {
	list, err := s.svc.Categories.List(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cat, err := s.svc.Categories.GetByID(c, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) createCategory(c *gin.Context) {
	var req domain.Category
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	cat, err := s.svc.Categories.Create(c, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) updateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	body, ok := rawBody(c)
	if !ok {
		return
	}
	cat, err := s.svc.Categories.Update(c, id, body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (s *Server) deleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Categories.Delete(c, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) addAttribute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.CategoryAttribute
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	attr, err := s.svc.Categories.AddAttribute(c, id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, attr)
}

func (s *Server) updateAttribute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	attrID, ok := pathID(c, "attrId")
	if !ok {
		return
	}
	body, ok := rawBody(c)
	if !ok {
		return
	}
	attr, err := s.svc.Categories.UpdateAttribute(c, id, attrID, body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, attr)
}

func (s *Server) removeAttribute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	attrID, ok := pathID(c, "attrId")
	if !ok {
		return
	}
	if err := s.svc.Categories.RemoveAttribute(c, id, attrID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Product handlers

// listProducts GET /produits?page&limit&nom отвечает конвертом {data,total,page,limit}
func (s *Server) listProducts(c *gin.Context) {
	f := repository.ProductFilter{NameSubstring: c.Query("nom")}
	if v := c.Query("categorieId"); v != "" {
		if x, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.CategoryID = x
		}
	}
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := s.svc.Products.ListPage(c, f, page, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := s.svc.Products.GetByID(c, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createProduct(c *gin.Context) {
	var req domain.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	p, err := s.svc.Products.Create(c, c.GetInt64(userIDKey), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) patchProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	body, ok := rawBody(c)
	if !ok {
		return
	}
	p, err := s.svc.Products.Patch(c, id, body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Products.Delete(c, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Offer handlers
func (s *Server) listOffers(c *gin.Context) {
	list, err := s.svc.Offers.List(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createOffer(c *gin.Context) {
	var req domain.Offer
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	req.ID = 0
	if _, err := s.svc.Products.GetByID(c, req.ProductID); err != nil {
		fail(c, err)
		return
	}
	o, err := s.svc.Offers.Create(c, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (s *Server) patchOffer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	body, ok := rawBody(c)
	if !ok {
		return
	}
	o, err := s.svc.Offers.Patch(c, id, body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) deleteOffer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Offers.Delete(c, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Promotion handlers
func (s *Server) listPromotions(c *gin.Context) {
	list, err := s.svc.Promotions.List(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createPromotion(c *gin.Context) {
	var req domain.Promotion
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return
	}
	req.ID = 0
	if _, err := s.svc.Products.GetByID(c, req.ProductID); err != nil {
		fail(c, err)
		return
	}
	p, err := s.svc.Promotions.Create(c, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) patchPromotion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	body, ok := rawBody(c)
	if !ok {
		return
	}
	p, err := s.svc.Promotions.Patch(c, id, body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deletePromotion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Promotions.Delete(c, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid " + name})
		return 0, false
	}
	return id, true
}

func rawBody(c *gin.Context) (json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
		return nil, false
	}
	return body, true
}

func fail(c *gin.Context, err error) {
	c.JSON(mapErrorToStatus(err), gin.H{"message": err.Error()})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
