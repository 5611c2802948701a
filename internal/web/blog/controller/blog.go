// Package controller serves the blog REST endpoints.
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/Laisky/laisky-cms/internal/web/blog/dto"
	"github.com/Laisky/laisky-cms/internal/web/blog/service"
	"github.com/Laisky/laisky-cms/library/httperr"
	"github.com/Laisky/laisky-cms/library/media"
)

const imagesField = "images"

// Blog blog controller
type Blog struct {
	svc *service.Blog
}

// New create blog controller
func New(svc *service.Blog) *Blog {
	return &Blog{svc: svc}
}

// Register mounts the blog routes, writes go through adminOnly
func (c *Blog) Register(r gin.IRouter, adminOnly gin.HandlerFunc) {
	r.GET("/", c.ListBlogs)
	r.GET("/single", c.GetBlog)
	r.POST("/add", adminOnly, c.AddBlog)
	r.PATCH("/edit", adminOnly, c.EditSection)
	r.DELETE("/delete", adminOnly, c.DeleteBlog)
}

type addBlogBody struct {
	Sections          json.RawMessage `json:"sections"`
	MetaTitle         string          `json:"metaTitle"`
	MetaDescription   string          `json:"metaDescription"`
	MetaKeywords      json.RawMessage `json:"metaKeywords"`
	MetaKeywordsLower json.RawMessage `json:"metakeywords"`
	Link              string          `json:"link"`
}

type editSectionBody struct {
	SectionIndex      json.RawMessage `json:"sectionIndex"`
	SectionData       json.RawMessage `json:"sectionData"`
	MetaTitle         string          `json:"metaTitle"`
	MetaDescription   string          `json:"metaDescription"`
	MetaKeywords      json.RawMessage `json:"metaKeywords"`
	MetaKeywordsLower json.RawMessage `json:"metakeywords"`
}

func isJSONRequest(ctx *gin.Context) bool {
	return ctx.ContentType() == binding.MIMEJSON
}

func isNullJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// formKeywords reads metaKeywords, also accepted as metakeywords
func formKeywords(ctx *gin.Context) []string {
	if values := ctx.PostFormArray("metaKeywords"); len(values) != 0 {
		return dto.ParseKeywords(values)
	}

	return dto.ParseKeywords(ctx.PostFormArray("metakeywords"))
}

// uploadedImages returns the files of the images field of a multipart request
func uploadedImages(ctx *gin.Context) ([]media.File, error) {
	if ctx.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, nil
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, httperr.Wrap(httperr.KindValidation, err, "Invalid multipart form")
	}

	headers := form.File[imagesField]
	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, media.FromMultipart(fh))
	}

	return files, nil
}

func (c *Blog) parseAddRequest(ctx *gin.Context) (*dto.AddBlogRequest, []media.File, error) {
	if isJSONRequest(ctx) {
		var body addBlogBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			return nil, nil, httperr.Wrap(httperr.KindValidation, err, "Invalid JSON body")
		}

		sections, err := dto.ParseSections(body.Sections)
		if err != nil {
			return nil, nil, err
		}

		keywords := dto.ParseKeywordsJSON(body.MetaKeywords)
		if keywords == nil {
			keywords = dto.ParseKeywordsJSON(body.MetaKeywordsLower)
		}

		return &dto.AddBlogRequest{
			Sections:        sections,
			MetaTitle:       body.MetaTitle,
			MetaDescription: body.MetaDescription,
			MetaKeywords:    keywords,
			Link:            body.Link,
		}, nil, nil
	}

	files, err := uploadedImages(ctx)
	if err != nil {
		return nil, nil, err
	}

	sections, err := dto.ParseSections([]byte(ctx.PostForm("sections")))
	if err != nil {
		return nil, nil, err
	}

	return &dto.AddBlogRequest{
		Sections:        sections,
		MetaTitle:       ctx.PostForm("metaTitle"),
		MetaDescription: ctx.PostForm("metaDescription"),
		MetaKeywords:    formKeywords(ctx),
		Link:            ctx.PostForm("link"),
	}, files, nil
}

// AddBlog creates a blog, images are uploaded and filled into the image sections
func (c *Blog) AddBlog(ctx *gin.Context) {
	req, files, err := c.parseAddRequest(ctx)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	blog, err := c.svc.AddBlog(ctx.Request.Context(), req, files)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.BlogResponse{
		Message: "Blog added successfully",
		Blog:    blog,
	})
}

// ListBlogs returns all blogs, newest first
func (c *Blog) ListBlogs(ctx *gin.Context) {
	blogs, err := c.svc.ListBlogs(ctx.Request.Context())
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.BlogsResponse{Success: true, Blogs: blogs})
}

// GetBlog returns the blog of query id
func (c *Blog) GetBlog(ctx *gin.Context) {
	blog, err := c.svc.GetBlog(ctx.Request.Context(), ctx.Query("id"))
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.BlogResponse{Success: true, Blog: blog})
}

var errMissingEditFields = httperr.Validation("sectionIndex and sectionData are required")

func (c *Blog) parseEditRequest(ctx *gin.Context) (*dto.EditSectionRequest, []media.File, error) {
	req := &dto.EditSectionRequest{ID: ctx.Query("id")}

	if isJSONRequest(ctx) {
		var body editSectionBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			return nil, nil, httperr.Wrap(httperr.KindValidation, err, "Invalid JSON body")
		}
		if isNullJSON(body.SectionIndex) || isNullJSON(body.SectionData) {
			return nil, nil, errMissingEditFields
		}

		section, err := dto.ParseSection(body.SectionData)
		if err != nil {
			return nil, nil, err
		}

		keywords := dto.ParseKeywordsJSON(body.MetaKeywords)
		if keywords == nil {
			keywords = dto.ParseKeywordsJSON(body.MetaKeywordsLower)
		}

		req.SectionIndex = dto.ParseSectionIndex(string(body.SectionIndex))
		req.Section = section
		req.Meta.MetaTitle = body.MetaTitle
		req.Meta.MetaDescription = body.MetaDescription
		req.Meta.MetaKeywords = keywords
		return req, nil, nil
	}

	files, err := uploadedImages(ctx)
	if err != nil {
		return nil, nil, err
	}

	rawIdx, okIdx := ctx.GetPostForm("sectionIndex")
	rawSection, okSection := ctx.GetPostForm("sectionData")
	if !okIdx || !okSection {
		return nil, nil, errMissingEditFields
	}

	section, err := dto.ParseSection([]byte(rawSection))
	if err != nil {
		return nil, nil, err
	}

	req.SectionIndex = dto.ParseSectionIndex(rawIdx)
	req.Section = section
	req.Meta.MetaTitle = ctx.PostForm("metaTitle")
	req.Meta.MetaDescription = ctx.PostForm("metaDescription")
	req.Meta.MetaKeywords = formKeywords(ctx)
	return req, files, nil
}

// EditSection replaces one section of the blog of query id
func (c *Blog) EditSection(ctx *gin.Context) {
	req, files, err := c.parseEditRequest(ctx)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	blog, err := c.svc.EditSection(ctx.Request.Context(), req, files)
	if err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.BlogResponse{
		Message: "Blog section updated successfully",
		Blog:    blog,
	})
}

// DeleteBlog deletes the blog of query id
func (c *Blog) DeleteBlog(ctx *gin.Context) {
	if err := c.svc.DeleteBlog(ctx.Request.Context(), ctx.Query("id")); err != nil {
		httperr.Abort(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Blog deleted successfully",
	})
}
