package render

// surfaceVertexShader transforms surface patch vertices and passes the
// normal and texture coordinate through for lighting and sampling.
const surfaceVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoord;

uniform mat4 uViewProj;

out vec3 vNormal;
out vec2 vTexCoord;

void main() {
    gl_Position = uViewProj * vec4(aPos, 1.0);
    vNormal = aNormal;
    vTexCoord = aTexCoord;
}
`

// surfaceFragmentShader samples the tile texture with a simple
// directional light so the terminator reads as a sphere. Untextured
// patches (the startup placeholder) fall back to a flat base color.
const surfaceFragmentShader = `
#version 410 core

in vec3 vNormal;
in vec2 vTexCoord;

uniform sampler2D uTexture;
uniform bool uUseTexture;
uniform vec3 uBaseColor;
uniform vec3 uLightDir;

out vec4 FragColor;

void main() {
    vec3 color = uBaseColor;
    if (uUseTexture) {
        color = texture(uTexture, vTexCoord).rgb;
    }
    float diffuse = max(dot(normalize(vNormal), -uLightDir), 0.0);
    float light = 0.25 + 0.75 * diffuse;
    FragColor = vec4(color * light, 1.0);
}
`
